package batch

import (
	"math"
	"time"

	"structural-credit/internal/model"
)

type Result struct {
	Variant string
	Records []model.RiskRecord
	Summary Summary
	Elapsed time.Duration
}

// Summary is the run-level report. Means are taken over CONVERGED records only and
// are NaN when there are none.
type Summary struct {
	Total      int
	Converged  int
	Degenerate int
	Failed     int
	ByReason   map[model.Reason]int

	MeanV      float64
	MeanSigmaV float64
	MeanDD     float64
	MeanPD     float64
}

// SuccessRate is the CONVERGED share of all records.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return math.NaN()
	}
	return float64(s.Converged) / float64(s.Total)
}

func Summarize(records []model.RiskRecord) Summary {
	s := Summary{Total: len(records), ByReason: map[model.Reason]int{}}
	var sumV, sumSigma, sumDD, sumPD float64
	for _, r := range records {
		switch r.Status {
		case model.StatusConverged:
			s.Converged++
			sumV += r.V
			sumSigma += r.SigmaV
			sumDD += r.DD
			sumPD += r.PD
		case model.StatusDegenerate:
			s.Degenerate++
		default:
			s.Failed++
		}
		if r.Reason != model.ReasonNone {
			s.ByReason[r.Reason]++
		}
	}

	s.MeanV, s.MeanSigmaV, s.MeanDD, s.MeanPD = math.NaN(), math.NaN(), math.NaN(), math.NaN()
	if n := float64(s.Converged); n > 0 {
		s.MeanV = sumV / n
		s.MeanSigmaV = sumSigma / n
		s.MeanDD = sumDD / n
		s.MeanPD = sumPD / n
	}
	return s
}
