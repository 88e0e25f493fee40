package data

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"structural-credit/internal/model"
)

// ObservationRecord is the JSON shape of one input row. Null or absent numbers are
// missing data; they reach the solver as NaN and come back as INVALID_INPUT.
type ObservationRecord struct {
	Date           string   `json:"date"`
	FirmID         string   `json:"firm_id"`
	EquityValue    *float64 `json:"equity_value"`
	EquityVol      *float64 `json:"equity_vol"`
	Debt           *float64 `json:"debt"`
	RiskFreeRate   *float64 `json:"risk_free_rate"`
	TimeToMaturity *float64 `json:"time_to_maturity,omitempty"`
}

// ToObservation converts the record. defaultT applies when no maturity is given.
func (r ObservationRecord) ToObservation(defaultT float64) (model.MarketObservation, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return model.MarketObservation{}, err
	}
	t := defaultT
	if r.TimeToMaturity != nil {
		t = *r.TimeToMaturity
	}
	return model.MarketObservation{
		FirmID: strings.TrimSpace(r.FirmID),
		Date:   date,
		E:      orNaN(r.EquityValue),
		SigmaE: orNaN(r.EquityVol),
		D:      orNaN(r.Debt),
		R:      orNaN(r.RiskFreeRate),
		T:      t,
	}, nil
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// ParseDate accepts 2006-01-02 or RFC3339. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// GroupByFirm splits observations into firm-keyed, date-ordered slices.
func GroupByFirm(obs []model.MarketObservation) map[string][]model.MarketObservation {
	out := map[string][]model.MarketObservation{}
	for _, o := range obs {
		out[o.FirmID] = append(out[o.FirmID], o)
	}
	for _, series := range out {
		sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	}
	return out
}

// Firms returns the distinct firm IDs in sorted order.
func Firms(obs []model.MarketObservation) []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range obs {
		if !seen[o.FirmID] {
			seen[o.FirmID] = true
			out = append(out, o.FirmID)
		}
	}
	sort.Strings(out)
	return out
}
