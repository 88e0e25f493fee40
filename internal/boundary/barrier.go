package boundary

import "structural-credit/internal/pricing"

// ContinuousBarrier is the Black-Cox boundary: the firm also defaults the first time
// assets touch H = Ratio*D before maturity. Ratio is in (0, 1].
type ContinuousBarrier struct {
	Ratio float64
}

func (b ContinuousBarrier) Name() string { return NameContinuousBarrier }

func (b ContinuousBarrier) Barrier(d float64) float64 { return b.Ratio * d }

func (b ContinuousBarrier) Price(p pricing.Params) pricing.Quote {
	return pricing.DownAndOut(p, b.Barrier(p.D))
}

func (b ContinuousBarrier) DefaultProbability(v, d, t, r, sigma float64) float64 {
	return pricing.BlackCoxDefault(v, d, b.Barrier(d), t, r, sigma)
}

// Threshold stays at face value: the barrier only adds early default,
// the terminal trigger is still D.
func (b ContinuousBarrier) Threshold(d float64) float64 { return d }
