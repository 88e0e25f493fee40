package calibration

import (
	"math"

	"structural-credit/internal/boundary"
	"structural-credit/internal/model"
	"structural-credit/internal/pricing"
)

const (
	// relStep is the relative bump for the central-difference Jacobian.
	relStep = 1e-6
	// minDeterminant stops the iteration before dividing by a singular Jacobian.
	minDeterminant = 1e-15
)

// point is an iterate (V, sigma_V).
type point [2]float64

// residual is [E - Equity(V, sigma), sigma_E*E - Delta*sigma*V].
type residual [2]float64

func (r residual) finite() bool {
	return !math.IsNaN(r[0]) && !math.IsInf(r[0], 0) && !math.IsNaN(r[1]) && !math.IsInf(r[1], 0)
}

func (r residual) merit() float64 { return r[0]*r[0] + r[1]*r[1] }

// problem is one observation's pair of equations under one variant.
type problem struct {
	obs     model.MarketObservation
	variant boundary.Variant
	opts    Options
}

type attempt struct {
	x          point
	f          residual
	iterations int
	clamps     int
	converged  bool
}

func (p problem) residual(x point) residual {
	q := p.variant.Price(pricing.Params{V: x[0], D: p.obs.D, Tau: p.obs.T, R: p.obs.R, Sigma: x[1]})
	return residual{
		p.obs.E - q.Equity,
		p.obs.SigmaE*p.obs.E - q.Delta*x[1]*x[0],
	}
}

func (p problem) within(f residual) bool {
	return math.Abs(f[0]) < p.opts.Tolerance && math.Abs(f[1]) < p.opts.Tolerance
}

// clamp pulls an iterate back inside the region where ln(V/D) and d1 are well defined.
func (p problem) clamp(x point) (point, bool) {
	clamped := false
	if vFloor := p.obs.D * p.opts.AssetFloorRatio; !(x[0] > vFloor) {
		x[0] = vFloor
		clamped = true
	}
	if !(x[1] > p.opts.VolatilityFloor) {
		x[1] = p.opts.VolatilityFloor
		clamped = true
	}
	return x, clamped
}

func (p problem) atFloor(x point) bool {
	const slack = 1 + 1e-9
	return x[0] <= p.obs.D*p.opts.AssetFloorRatio*slack || x[1] <= p.opts.VolatilityFloor*slack
}

// jacobian approximates dF/dx with central differences around x.
func (p problem) jacobian(x point) [2][2]float64 {
	var j [2][2]float64
	for k := 0; k < 2; k++ {
		h := relStep * x[k]
		up, down := x, x
		up[k] += h
		down[k] -= h
		fu, fd := p.residual(up), p.residual(down)
		j[0][k] = (fu[0] - fd[0]) / (2 * h)
		j[1][k] = (fu[1] - fd[1]) / (2 * h)
	}
	return j
}

// newtonStep solves J*dx = -f by Cramer's rule.
func newtonStep(j [2][2]float64, f residual) (point, bool) {
	det := j[0][0]*j[1][1] - j[0][1]*j[1][0]
	if math.IsNaN(det) || math.IsInf(det, 0) || math.Abs(det) < minDeterminant {
		return point{}, false
	}
	return point{
		(-f[0]*j[1][1] + j[0][1]*f[1]) / det,
		(-j[0][0]*f[1] + j[1][0]*f[0]) / det,
	}, true
}

// lineSearch halves the step until the merit |F|^2 decreases, accepting the last
// candidate once MaxLineSearch halvings are spent.
func (p problem) lineSearch(x point, f residual, step point) (point, residual, bool) {
	m0 := f.merit()
	lambda := 1.0
	for k := 0; ; k++ {
		cand, clamped := p.clamp(point{x[0] + lambda*step[0], x[1] + lambda*step[1]})
		cf := p.residual(cand)
		if (cf.finite() && cf.merit() < m0) || k >= p.opts.MaxLineSearch {
			return cand, cf, clamped
		}
		lambda *= 0.5
	}
}

// run iterates from start until both residuals are within tolerance, the iteration
// cap is reached, or the Jacobian turns singular.
func (p problem) run(start Guess) attempt {
	var a attempt
	x, clamped := p.clamp(point{start.V, start.SigmaV})
	if clamped {
		a.clamps++
	}
	f := p.residual(x)
	for {
		if p.within(f) {
			a.converged = true
			break
		}
		if a.iterations >= p.opts.MaxIterations || !f.finite() {
			break
		}
		step, ok := newtonStep(p.jacobian(x), f)
		if !ok {
			break
		}
		x, f, clamped = p.lineSearch(x, f, step)
		a.iterations++
		if clamped {
			a.clamps++
		}
	}
	a.x, a.f = x, f
	return a
}
