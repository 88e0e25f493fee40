package analysis

import (
	"math"
	"sort"
	"time"

	"structural-credit/internal/model"
)

// Selector picks the PD series a stability report is computed on.
type Selector func(model.RiskRecord) float64

func RawPD(r model.RiskRecord) float64      { return r.PD }
func SmoothedPD(r model.RiskRecord) float64 { return r.PDSmoothed }

// FirmStability summarizes how much a firm's PD moves through time.
// Every statistic is computed over CONVERGED records only.
type FirmStability struct {
	FirmID string

	Start time.Time
	End   time.Time

	Observations int
	Converged    int

	MeanPD float64
	StdPD  float64
	// CV is StdPD/MeanPD, or 0 when the mean PD is zero.
	CV    float64
	P05PD float64
	P95PD float64

	MeanAbsChange float64
	MaxAbsChange  float64
	// DirectionChangeShare is the fraction of observations where the PD series
	// turns between rising and not rising.
	DirectionChangeShare float64

	MeanLeverage float64
	MeanV        float64
	MeanDD       float64
}

// Stability computes per-firm diagnostics for the series sel selects, sorted by firm.
func Stability(records []model.RiskRecord, sel Selector) []FirmStability {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.FirmID]++
	}

	byFirm := convergedByFirm(records)
	out := make([]FirmStability, 0, len(counts))
	for firm, n := range counts {
		idx, ok := byFirm[firm]
		if !ok {
			out = append(out, emptyStability(firm, n))
			continue
		}
		series := make([]model.RiskRecord, len(idx))
		for k, i := range idx {
			series[k] = records[i]
		}
		s := computeStability(series, sel)
		s.FirmID = firm
		s.Observations = n
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirmID < out[j].FirmID })
	return out
}

func findFirm(stats []FirmStability, firm string) (FirmStability, bool) {
	for _, s := range stats {
		if s.FirmID == firm {
			return s, true
		}
	}
	return FirmStability{}, false
}

func emptyStability(firm string, n int) FirmStability {
	nan := math.NaN()
	return FirmStability{
		FirmID:               firm,
		Observations:         n,
		MeanPD:               nan,
		StdPD:                nan,
		CV:                   nan,
		P05PD:                nan,
		P95PD:                nan,
		MeanAbsChange:        nan,
		MaxAbsChange:         nan,
		DirectionChangeShare: nan,
		MeanLeverage:         nan,
		MeanV:                nan,
		MeanDD:               nan,
	}
}

// computeStability expects a date-ordered, non-empty series.
func computeStability(series []model.RiskRecord, sel Selector) FirmStability {
	n := len(series)
	s := emptyStability("", n)
	s.Converged = n
	s.Start = series[0].Date
	s.End = series[n-1].Date

	vals := make([]float64, n)
	var sumPD, sumLev, sumV, sumDD float64
	for i, r := range series {
		vals[i] = sel(r)
		sumPD += vals[i]
		sumLev += r.Leverage()
		sumV += r.V
		sumDD += r.DD
	}
	s.MeanPD = sumPD / float64(n)
	s.MeanLeverage = sumLev / float64(n)
	s.MeanV = sumV / float64(n)
	s.MeanDD = sumDD / float64(n)

	if n > 1 {
		ss := 0.0
		for _, v := range vals {
			ss += (v - s.MeanPD) * (v - s.MeanPD)
		}
		s.StdPD = math.Sqrt(ss / float64(n-1))
	}
	s.CV = 0
	if s.MeanPD > 0 {
		s.CV = s.StdPD / s.MeanPD
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.P05PD = percentileSorted(sorted, 0.05)
	s.P95PD = percentileSorted(sorted, 0.95)

	if n > 1 {
		sumChange, maxChange := 0.0, 0.0
		turns := 0
		prevUp := false
		for i := 1; i < n; i++ {
			diff := vals[i] - vals[i-1]
			sumChange += math.Abs(diff)
			maxChange = math.Max(maxChange, math.Abs(diff))
			up := diff > 0
			if up != prevUp {
				turns++
			}
			prevUp = up
		}
		s.MeanAbsChange = sumChange / float64(n-1)
		s.MaxAbsChange = maxChange
		s.DirectionChangeShare = float64(turns) / float64(n)
	}
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// StabilityComparison contrasts the raw and smoothed PD series of one firm.
type StabilityComparison struct {
	FirmID       string
	RawStd       float64
	SmoothedStd  float64
	ReductionPct float64
}

// CompareStability pairs raw and smoothed reports by firm. ReductionPct is
// (raw - smoothed) / raw * 100 and NaN when the raw series does not move.
func CompareStability(raw, smoothed []FirmStability) []StabilityComparison {
	out := make([]StabilityComparison, 0, len(raw))
	for _, r := range raw {
		s, ok := findFirm(smoothed, r.FirmID)
		if !ok {
			continue
		}
		c := StabilityComparison{FirmID: r.FirmID, RawStd: r.StdPD, SmoothedStd: s.StdPD, ReductionPct: math.NaN()}
		if r.StdPD > 0 {
			c.ReductionPct = (r.StdPD - s.StdPD) / r.StdPD * 100
		}
		out = append(out, c)
	}
	return out
}
