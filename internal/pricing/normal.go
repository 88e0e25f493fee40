package pricing

import "math"

// NormCDF is the standard normal cumulative distribution function Φ.
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// NormPDF is the standard normal density φ.
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// weighted returns exp(logWeight)*x for x >= 0 without forming exp(logWeight) on its own,
// so a huge weight times a vanishing x cannot turn into Inf*0.
func weighted(logWeight, x float64) float64 {
	if !(x > 0) {
		return 0
	}
	v := logWeight + math.Log(x)
	if v > 709 {
		return math.Inf(1)
	}
	return math.Exp(v)
}
