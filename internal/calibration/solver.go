package calibration

import (
	"fmt"
	"math"

	"structural-credit/internal/boundary"
	"structural-credit/internal/model"
)

// Guess is a starting point for the solver. Batch runs pass the previous date's
// converged state here to warm-start a firm's series.
type Guess struct {
	V      float64
	SigmaV float64
}

func (g Guess) valid() bool {
	return g.V > 0 && g.SigmaV > 0 && !math.IsInf(g.V, 0) && !math.IsInf(g.SigmaV, 0)
}

// InitialGuess is V0 = E + D and sigma0 = sigma_E * E / (E + D): asset value covering
// equity plus face debt, equity volatility scaled down by leverage.
func InitialGuess(obs model.MarketObservation) Guess {
	return Guess{
		V:      obs.E + obs.D,
		SigmaV: obs.SigmaE * obs.E / (obs.E + obs.D),
	}
}

// Solver inverts the equity/volatility equations for one observation at a time.
// It holds no mutable state and is safe for concurrent use.
type Solver struct {
	opts Options
}

func New(opts Options) *Solver {
	return &Solver{opts: opts.withDefaults()}
}

func (s *Solver) Options() Options { return s.opts }

// Solve calibrates (V, sigma_V) for obs under variant v. guess may be nil.
// The result is a pure function of the arguments.
func (s *Solver) Solve(obs model.MarketObservation, v boundary.Variant, guess *Guess) model.CalibratedState {
	if err := obs.Validate(); err != nil {
		return model.Failed(model.ReasonInvalidInput, err.Error())
	}

	start := InitialGuess(obs)
	if guess != nil && guess.valid() {
		start = *guess
	}

	p := problem{obs: obs, variant: v, opts: s.opts}
	a := p.run(start)
	retried := false
	if !a.converged {
		retried = true
		second := p.run(Guess{V: start.V, SigmaV: start.SigmaV * s.opts.PerturbFactor})
		second.iterations += a.iterations
		second.clamps += a.clamps
		a = second
	}
	return s.classify(p, a, retried)
}

func (s *Solver) classify(p problem, a attempt, retried bool) model.CalibratedState {
	var st model.CalibratedState
	switch {
	case !a.converged:
		st = model.Failed(model.ReasonNonConvergence,
			fmt.Sprintf("residuals [%.3g, %.3g] after %d iterations", a.f[0], a.f[1], a.iterations))
	case math.IsNaN(a.x[0]) || math.IsNaN(a.x[1]) || a.x[1] > s.opts.MaxAssetVolatility:
		st = model.Failed(model.ReasonImplausible,
			fmt.Sprintf("sigma_V=%.4g exceeds %.4g", a.x[1], s.opts.MaxAssetVolatility))
	case a.x[0] < s.opts.MinAssetToEquity*p.obs.E:
		st = model.Failed(model.ReasonImplausible,
			fmt.Sprintf("V=%.6g is below %.4g times equity %.6g", a.x[0], s.opts.MinAssetToEquity, p.obs.E))
	default:
		st = model.CalibratedState{V: a.x[0], SigmaV: a.x[1], Status: model.StatusConverged}
		switch {
		case p.atFloor(a.x):
			st.Status = model.StatusDegenerate
			st.Reason = model.ReasonAtFloor
			st.Detail = "root sits on the numerical floor"
		case float64(a.clamps) > s.opts.ClampFraction*float64(max(a.iterations, 1)):
			st.Status = model.StatusDegenerate
			st.Reason = model.ReasonClamped
			st.Detail = fmt.Sprintf("%d clamps in %d iterations", a.clamps, a.iterations)
		}
	}
	st.Iterations = a.iterations
	st.Clamps = a.clamps
	st.Retried = retried
	return st
}
