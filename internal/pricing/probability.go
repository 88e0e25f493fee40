package pricing

import "math"

// TerminalDefault is the risk-neutral probability that V_T < D, Φ(-d2).
// Returns NaN when the inputs leave the model undefined.
func TerminalDefault(v, d, t, r, sigma float64) float64 {
	if !(v > 0) || !(d > 0) || !(t > 0) || !(sigma > 0) {
		return math.NaN()
	}
	_, d2 := D1D2(Params{V: v, D: d, Tau: t, R: r, Sigma: sigma})
	return NormCDF(-d2)
}

// FirstPassage is the probability that a GBM with drift r started at v touches
// h at some time in [0, t]. A path already at or below h has defaulted.
func FirstPassage(v, h, t, r, sigma float64) float64 {
	if !(v > 0) || !(h > 0) || !(t > 0) || !(sigma > 0) {
		return math.NaN()
	}
	if v <= h {
		return 1
	}
	mu := r - 0.5*sigma*sigma
	sq := sigma * math.Sqrt(t)
	b := math.Log(v / h)
	p := NormCDF((-b-mu*t)/sq) + weighted(2*mu/(sigma*sigma)*math.Log(h/v), NormCDF((-b+mu*t)/sq))
	return clampProb(p)
}

// BlackCoxDefault is the probability of defaulting either by touching h before t or
// by ending below d at t, for h <= d:
//
//	Φ(-d2) + (h/v)^(2mu/sigma^2) * Φ((ln(h^2/(v*d)) + mu*t) / (sigma*sqrt(t)))
//
// It is never below TerminalDefault and equals FirstPassage when h == d.
func BlackCoxDefault(v, d, h, t, r, sigma float64) float64 {
	if h <= 0 {
		return TerminalDefault(v, d, t, r, sigma)
	}
	if !(v > 0) || !(d > 0) || !(t > 0) || !(sigma > 0) {
		return math.NaN()
	}
	if v <= h {
		return 1
	}
	mu := r - 0.5*sigma*sigma
	sq := sigma * math.Sqrt(t)
	d2 := (math.Log(v/d) + mu*t) / sq
	z := (math.Log(h*h/(v*d)) + mu*t) / sq
	p := NormCDF(-d2) + weighted(2*mu/(sigma*sigma)*math.Log(h/v), NormCDF(z))
	return clampProb(p)
}

func clampProb(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
