package batch

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"structural-credit/internal/boundary"
	"structural-credit/internal/calibration"
	"structural-credit/internal/model"
	"structural-credit/internal/risk"
)

// Recorder receives per-observation and per-run outcomes. metrics.Recorder implements it.
type Recorder interface {
	RecordCalibration(variant string, st model.CalibratedState, elapsed time.Duration)
	RecordBatch(variant string, observations int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCalibration(string, model.CalibratedState, time.Duration) {}
func (nopRecorder) RecordBatch(string, int)                                        {}

type Options struct {
	// Workers bounds concurrent calibrations. Zero means runtime.NumCPU().
	Workers int
	// WarmStart runs each firm's observations in date order, seeding every solve with
	// the firm's previous converged state.
	WarmStart bool
}

type Engine struct {
	solver   *calibration.Solver
	variant  boundary.Variant
	opts     Options
	log      zerolog.Logger
	recorder Recorder
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func New(solver *calibration.Solver, variant boundary.Variant, opts Options, options ...Option) *Engine {
	e := &Engine{
		solver:   solver,
		variant:  variant,
		opts:     opts,
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, o := range options {
		o(e)
	}
	return e
}

func (e *Engine) Variant() boundary.Variant { return e.variant }

// Run calibrates every observation and returns one record per input, in input order.
// A failed observation never aborts the batch; only ctx cancellation does, and then
// no partial result is returned.
func (e *Engine) Run(ctx context.Context, obs []model.MarketObservation) (*Result, error) {
	if e.solver == nil {
		return nil, fmt.Errorf("solver is nil")
	}
	if e.variant == nil {
		return nil, fmt.Errorf("variant is nil")
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("no observations")
	}

	start := time.Now()
	records := make([]model.RiskRecord, len(obs))

	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, chain := range chains(obs, e.opts.WarmStart) {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			var guess *calibration.Guess
			for _, idx := range chain {
				if err := gctx.Err(); err != nil {
					return err
				}
				st := e.calibrate(obs[idx], guess)
				records[idx] = risk.Measure(obs[idx], st, e.variant)
				if e.opts.WarmStart && st.Status == model.StatusConverged {
					guess = &calibration.Guess{V: st.V, SigmaV: st.SigmaV}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}

	res := &Result{
		Variant: e.variant.Name(),
		Records: records,
		Summary: Summarize(records),
		Elapsed: time.Since(start),
	}
	e.recorder.RecordBatch(res.Variant, len(obs))
	e.log.Info().
		Str("variant", res.Variant).
		Int("observations", res.Summary.Total).
		Int("converged", res.Summary.Converged).
		Int("degenerate", res.Summary.Degenerate).
		Int("failed", res.Summary.Failed).
		Dur("elapsed", res.Elapsed).
		Msg("batch complete")
	return res, nil
}

func (e *Engine) calibrate(o model.MarketObservation, guess *calibration.Guess) model.CalibratedState {
	t0 := time.Now()
	st := e.solver.Solve(o, e.variant, guess)
	e.recorder.RecordCalibration(e.variant.Name(), st, time.Since(t0))
	if st.Status != model.StatusConverged {
		e.log.Debug().
			Str("firm_id", o.FirmID).
			Time("date", o.Date).
			Str("status", string(st.Status)).
			Str("reason", string(st.Reason)).
			Str("detail", st.Detail).
			Int("iterations", st.Iterations).
			Msg("observation not converged")
	}
	return st
}

// chains splits observation indices into independent units of work: one per
// observation, or one date-ordered sequence per firm when warm starting.
func chains(obs []model.MarketObservation, warm bool) [][]int {
	if !warm {
		out := make([][]int, len(obs))
		for i := range obs {
			out[i] = []int{i}
		}
		return out
	}

	byFirm := map[string][]int{}
	var firms []string
	for i, o := range obs {
		if _, ok := byFirm[o.FirmID]; !ok {
			firms = append(firms, o.FirmID)
		}
		byFirm[o.FirmID] = append(byFirm[o.FirmID], i)
	}
	out := make([][]int, 0, len(firms))
	for _, f := range firms {
		idx := byFirm[f]
		sort.SliceStable(idx, func(a, b int) bool { return obs[idx[a]].Date.Before(obs[idx[b]].Date) })
		out = append(out, idx)
	}
	return out
}
