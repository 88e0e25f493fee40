package model

import (
	"math"
	"time"
)

// RiskRecord is one row of per-observation output.
// This is the primary artifact consumers filter on Status before using DD/PD.
type RiskRecord struct {
	FirmID string
	Date   time.Time

	E      float64
	SigmaE float64
	D      float64
	R      float64
	T      float64

	V      float64
	SigmaV float64

	DD float64
	PD float64

	// PDSmoothed is NaN unless analysis.SmoothPD has run over the batch.
	PDSmoothed float64

	Status     Status
	Reason     Reason
	Iterations int
}

// NewRiskRecord copies the observation fields and marks every derived number undefined.
func NewRiskRecord(obs MarketObservation) RiskRecord {
	nan := math.NaN()
	return RiskRecord{
		FirmID:     obs.FirmID,
		Date:       obs.Date,
		E:          obs.E,
		SigmaE:     obs.SigmaE,
		D:          obs.D,
		R:          obs.R,
		T:          obs.T,
		V:          nan,
		SigmaV:     nan,
		DD:         nan,
		PD:         nan,
		PDSmoothed: nan,
	}
}

func (r RiskRecord) Converged() bool { return r.Status == StatusConverged }

func (r RiskRecord) Leverage() float64 {
	if !(r.E > 0) {
		return math.NaN()
	}
	return r.D / r.E
}
