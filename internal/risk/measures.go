package risk

import (
	"math"

	"structural-credit/internal/boundary"
	"structural-credit/internal/model"
)

// DistanceToDefault is the number of standard deviations the expected terminal asset
// value lies above threshold:
//
//	(V*e^(rt) - threshold) / (V*e^(rt) * sqrt(e^(sigma^2*t) - 1))
//
// NaN when any input is outside the model's domain.
func DistanceToDefault(v, threshold, t, r, sigma float64) float64 {
	if !(v > 0) || !(threshold > 0) || !(t > 0) || !(sigma > 0) ||
		math.IsInf(v, 0) || math.IsInf(sigma, 0) {
		return math.NaN()
	}
	mean := v * math.Exp(r*t)
	return (mean - threshold) / (mean * math.Sqrt(math.Expm1(sigma*sigma*t)))
}

// Measure derives DD and PD from a calibrated state. FAILED states keep every
// derived field NaN so they cannot be mistaken for a zero-risk firm.
func Measure(obs model.MarketObservation, st model.CalibratedState, v boundary.Variant) model.RiskRecord {
	rec := model.NewRiskRecord(obs)
	rec.Status = st.Status
	rec.Reason = st.Reason
	rec.Iterations = st.Iterations
	if !st.Usable() {
		return rec
	}

	rec.V = st.V
	rec.SigmaV = st.SigmaV
	rec.DD = DistanceToDefault(st.V, v.Threshold(obs.D), obs.T, obs.R, st.SigmaV)
	rec.PD = v.DefaultProbability(st.V, obs.D, obs.T, obs.R, st.SigmaV)
	return rec
}
