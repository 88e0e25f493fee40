package pricing

import "math"

// Params are the kernel inputs. Tau is time to maturity in years, Sigma the asset volatility.
type Params struct {
	V     float64
	D     float64
	Tau   float64
	R     float64
	Sigma float64
}

// Case tags a boundary condition the kernel hit while pricing.
// The numeric result is still usable; the tag lets callers tell a smooth
// interior evaluation from a collapsed one.
type Case string

const (
	CaseNone             Case = ""
	CaseExpired          Case = "EXPIRED"
	CaseDeterministic    Case = "DETERMINISTIC"
	CaseNonPositiveAsset Case = "NON_POSITIVE_ASSET"
	CaseKnockedOut       Case = "KNOCKED_OUT"
)

// Quote is the model equity value and its sensitivity to asset value.
type Quote struct {
	Equity float64
	Delta  float64
	Case   Case
}

// Merton prices equity as a European call on firm assets struck at the debt face value.
// Default can only happen at maturity.
func Merton(p Params) Quote {
	if !(p.V > 0) || !(p.D > 0) {
		return Quote{Case: CaseNonPositiveAsset}
	}
	if p.Tau <= 0 {
		return expired(p)
	}
	if p.Sigma <= 0 {
		return deterministic(p)
	}
	d1, d2 := D1D2(p)
	return Quote{
		Equity: p.V*NormCDF(d1) - p.D*math.Exp(-p.R*p.Tau)*NormCDF(d2),
		Delta:  NormCDF(d1),
	}
}

// D1D2 returns the Black-Scholes d1 and d2 terms. Callers must guarantee
// V, D, Tau and Sigma are strictly positive.
func D1D2(p Params) (float64, float64) {
	sq := p.Sigma * math.Sqrt(p.Tau)
	d1 := (math.Log(p.V/p.D) + (p.R+0.5*p.Sigma*p.Sigma)*p.Tau) / sq
	return d1, d1 - sq
}

// expired collapses the call to its intrinsic value. The delta is the
// indicator V > D, not a derivative.
func expired(p Params) Quote {
	q := Quote{Case: CaseExpired}
	if p.V > p.D {
		q.Equity = p.V - p.D
		q.Delta = 1
	}
	return q
}

// deterministic handles a zero-volatility asset path V*e^{r*tau}.
func deterministic(p Params) Quote {
	q := Quote{Case: CaseDeterministic}
	if p.V*math.Exp(p.R*p.Tau) > p.D {
		q.Equity = p.V - p.D*math.Exp(-p.R*p.Tau)
		q.Delta = 1
	}
	return q
}
