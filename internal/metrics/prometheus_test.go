package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"structural-credit/internal/model"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordCalibration("maturity", model.CalibratedState{Status: model.StatusConverged, Iterations: 3}, time.Millisecond)
	r.RecordCalibration("maturity", model.CalibratedState{Status: model.StatusConverged, Iterations: 2}, time.Millisecond)
	r.RecordCalibration("maturity", model.Failed(model.ReasonInvalidInput, "E"), 0)
	r.RecordBatch("maturity", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.calibrations.WithLabelValues("maturity", "CONVERGED", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.calibrations.WithLabelValues("maturity", "FAILED", "INVALID_INPUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.batchRuns.WithLabelValues("maturity")))

	n, err := testutil.GatherAndCount(reg, "calibration_iterations")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
