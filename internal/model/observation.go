package model

import (
	"errors"
	"math"
	"time"
)

// MarketObservation is one aligned (firm, date) input row.
// Units:
// - E, D: same currency unit (the loader does not rescale)
// - SigmaE: annualized equity volatility
// - R: continuously compounded annual risk-free rate
// - T: time to maturity in years
type MarketObservation struct {
	FirmID string    `json:"firm_id"`
	Date   time.Time `json:"date"`

	E      float64 `json:"equity_value"`
	SigmaE float64 `json:"equity_vol"`
	D      float64 `json:"debt"`
	R      float64 `json:"risk_free_rate"`
	T      float64 `json:"time_to_maturity"`
}

// Validate reports the first violated input precondition.
// Missing values arrive as NaN and are rejected here as well.
func (o MarketObservation) Validate() error {
	if !(o.E > 0) || math.IsInf(o.E, 0) {
		return errors.New("E must be finite and > 0")
	}
	if !(o.SigmaE > 0) || math.IsInf(o.SigmaE, 0) {
		return errors.New("sigma_E must be finite and > 0")
	}
	if !(o.D > 0) || math.IsInf(o.D, 0) {
		return errors.New("D must be finite and > 0")
	}
	if !(o.T > 0) || math.IsInf(o.T, 0) {
		return errors.New("T must be finite and > 0")
	}
	if math.IsNaN(o.R) || math.IsInf(o.R, 0) {
		return errors.New("r must be finite")
	}
	return nil
}

// Leverage is D/E, the quantity the firm ranking reports next to PD.
func (o MarketObservation) Leverage() float64 {
	if !(o.E > 0) {
		return math.NaN()
	}
	return o.D / o.E
}
