package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"structural-credit/internal/model"
)

// Recorder publishes calibration metrics to Prometheus. It satisfies batch.Recorder.
type Recorder struct {
	calibrations *prometheus.CounterVec
	iterations   *prometheus.HistogramVec
	duration     *prometheus.HistogramVec
	batchRuns    *prometheus.CounterVec
}

// New registers the calibration metrics with reg. Pass prometheus.DefaultRegisterer
// to expose them on the process-wide /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		calibrations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "calibrations_total",
				Help: "Calibrated observations by variant and outcome",
			},
			[]string{"variant", "status", "reason"},
		),
		iterations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "calibration_iterations",
				Help:    "Newton iterations spent per observation, retries included",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50, 100, 200},
			},
			[]string{"variant"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "calibration_duration_seconds",
				Help:    "Wall time per calibrated observation",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"variant"},
		),
		batchRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batch_runs_total",
				Help: "Completed batch runs",
			},
			[]string{"variant"},
		),
	}
}

// RecordCalibration records one observation's outcome.
func (r *Recorder) RecordCalibration(variant string, st model.CalibratedState, elapsed time.Duration) {
	r.calibrations.WithLabelValues(variant, string(st.Status), string(st.Reason)).Inc()
	r.iterations.WithLabelValues(variant).Observe(float64(st.Iterations))
	r.duration.WithLabelValues(variant).Observe(elapsed.Seconds())
}

// RecordBatch records a finished batch run.
func (r *Recorder) RecordBatch(variant string, _ int) {
	r.batchRuns.WithLabelValues(variant).Inc()
}
