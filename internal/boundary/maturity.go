package boundary

import "structural-credit/internal/pricing"

// Maturity is the Merton (1974) boundary: default is only checked at T.
type Maturity struct{}

func (Maturity) Name() string { return NameMaturity }

func (Maturity) Price(p pricing.Params) pricing.Quote { return pricing.Merton(p) }

func (Maturity) DefaultProbability(v, d, t, r, sigma float64) float64 {
	return pricing.TerminalDefault(v, d, t, r, sigma)
}

func (Maturity) Threshold(d float64) float64 { return d }
