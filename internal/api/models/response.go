package models

import (
	"math"
	"time"

	"structural-credit/internal/analysis"
	"structural-credit/internal/batch"
	"structural-credit/internal/boundary"
	"structural-credit/internal/model"
)

// CalibrateResponse represents the response from a calibration run
type CalibrateResponse struct {
	ID      string       `json:"id"`
	Status  string       `json:"status"`
	Variant string       `json:"variant"`
	Summary Summary      `json:"summary"`
	Records []RiskRecord `json:"records,omitempty"`
}

// Summary mirrors batch.Summary. Undefined means are null.
type Summary struct {
	Total       int            `json:"total"`
	Converged   int            `json:"converged"`
	Degenerate  int            `json:"degenerate"`
	Failed      int            `json:"failed"`
	ByReason    map[string]int `json:"by_reason"`
	SuccessRate *float64       `json:"success_rate"`
	MeanV       *float64       `json:"mean_v"`
	MeanSigmaV  *float64       `json:"mean_sigma_v"`
	MeanDD      *float64       `json:"mean_dd"`
	MeanPD      *float64       `json:"mean_pd"`
	ElapsedMS   int64          `json:"elapsed_ms"`
}

// RiskRecord is one output row. Undefined numbers are null, never zero.
type RiskRecord struct {
	Date       string   `json:"date"`
	FirmID     string   `json:"firm_id"`
	E          *float64 `json:"E"`
	SigmaE     *float64 `json:"sigma_E"`
	D          *float64 `json:"D"`
	R          *float64 `json:"r"`
	T          *float64 `json:"T"`
	V          *float64 `json:"V"`
	SigmaV     *float64 `json:"sigma_V"`
	DD         *float64 `json:"DD"`
	PD         *float64 `json:"PD"`
	PDSmoothed *float64 `json:"PD_smoothed"`
	Status     string   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
	Iterations int      `json:"iterations"`
}

// RecordsResponse represents GET /api/v1/runs/:id/records
type RecordsResponse struct {
	ID      string       `json:"id"`
	Variant string       `json:"variant"`
	Records []RiskRecord `json:"records"`
}

// StabilityResponse represents GET /api/v1/runs/:id/stability
type StabilityResponse struct {
	ID         string          `json:"id"`
	Series     string          `json:"series"` // "PD" or "PD_smoothed"
	Firms      []FirmStability `json:"firms"`
	Comparison []Comparison    `json:"comparison,omitempty"`
	Ranking    []Ranking       `json:"ranking"`
}

// FirmStability mirrors analysis.FirmStability.
type FirmStability struct {
	FirmID               string    `json:"firm_id"`
	Start                time.Time `json:"start"`
	End                  time.Time `json:"end"`
	Observations         int       `json:"observations"`
	Converged            int       `json:"converged"`
	MeanPD               *float64  `json:"mean_pd"`
	StdPD                *float64  `json:"std_pd"`
	CV                   *float64  `json:"cv"`
	P05PD                *float64  `json:"p05_pd"`
	P95PD                *float64  `json:"p95_pd"`
	MeanAbsChange        *float64  `json:"mean_abs_change"`
	MaxAbsChange         *float64  `json:"max_abs_change"`
	DirectionChangeShare *float64  `json:"direction_change_share"`
	MeanLeverage         *float64  `json:"mean_leverage"`
	MeanV                *float64  `json:"mean_v"`
	MeanDD               *float64  `json:"mean_dd"`
}

// Comparison contrasts raw and smoothed PD volatility for one firm
type Comparison struct {
	FirmID       string   `json:"firm_id"`
	RawStd       *float64 `json:"raw_std"`
	SmoothedStd  *float64 `json:"smoothed_std"`
	ReductionPct *float64 `json:"reduction_pct"`
}

// Ranking represents one ranked firm
type Ranking struct {
	Rank         int      `json:"rank"`
	FirmID       string   `json:"firm_id"`
	MeanPD       *float64 `json:"mean_pd"`
	MeanLeverage *float64 `json:"mean_leverage"`
}

// VariantsResponse lists the supported default boundaries
type VariantsResponse struct {
	Variants []boundary.Info `json:"variants"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Num maps NaN and ±Inf to null.
func Num(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func NewSummary(s batch.Summary, elapsed time.Duration) Summary {
	byReason := make(map[string]int, len(s.ByReason))
	for r, n := range s.ByReason {
		byReason[string(r)] = n
	}
	return Summary{
		Total:       s.Total,
		Converged:   s.Converged,
		Degenerate:  s.Degenerate,
		Failed:      s.Failed,
		ByReason:    byReason,
		SuccessRate: Num(s.SuccessRate()),
		MeanV:       Num(s.MeanV),
		MeanSigmaV:  Num(s.MeanSigmaV),
		MeanDD:      Num(s.MeanDD),
		MeanPD:      Num(s.MeanPD),
		ElapsedMS:   elapsed.Milliseconds(),
	}
}

func NewRiskRecords(records []model.RiskRecord) []RiskRecord {
	out := make([]RiskRecord, 0, len(records))
	for _, r := range records {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format(time.DateOnly)
		}
		out = append(out, RiskRecord{
			Date:       date,
			FirmID:     r.FirmID,
			E:          Num(r.E),
			SigmaE:     Num(r.SigmaE),
			D:          Num(r.D),
			R:          Num(r.R),
			T:          Num(r.T),
			V:          Num(r.V),
			SigmaV:     Num(r.SigmaV),
			DD:         Num(r.DD),
			PD:         Num(r.PD),
			PDSmoothed: Num(r.PDSmoothed),
			Status:     string(r.Status),
			Reason:     string(r.Reason),
			Iterations: r.Iterations,
		})
	}
	return out
}

func NewFirmStability(stats []analysis.FirmStability) []FirmStability {
	out := make([]FirmStability, 0, len(stats))
	for _, s := range stats {
		out = append(out, FirmStability{
			FirmID:               s.FirmID,
			Start:                s.Start,
			End:                  s.End,
			Observations:         s.Observations,
			Converged:            s.Converged,
			MeanPD:               Num(s.MeanPD),
			StdPD:                Num(s.StdPD),
			CV:                   Num(s.CV),
			P05PD:                Num(s.P05PD),
			P95PD:                Num(s.P95PD),
			MeanAbsChange:        Num(s.MeanAbsChange),
			MaxAbsChange:         Num(s.MaxAbsChange),
			DirectionChangeShare: Num(s.DirectionChangeShare),
			MeanLeverage:         Num(s.MeanLeverage),
			MeanV:                Num(s.MeanV),
			MeanDD:               Num(s.MeanDD),
		})
	}
	return out
}

func NewComparisons(cmp []analysis.StabilityComparison) []Comparison {
	out := make([]Comparison, 0, len(cmp))
	for _, c := range cmp {
		out = append(out, Comparison{
			FirmID:       c.FirmID,
			RawStd:       Num(c.RawStd),
			SmoothedStd:  Num(c.SmoothedStd),
			ReductionPct: Num(c.ReductionPct),
		})
	}
	return out
}

func NewRankings(ranked []analysis.FirmStability) []Ranking {
	out := make([]Ranking, 0, len(ranked))
	for i, s := range ranked {
		out = append(out, Ranking{
			Rank:         i + 1,
			FirmID:       s.FirmID,
			MeanPD:       Num(s.MeanPD),
			MeanLeverage: Num(s.MeanLeverage),
		})
	}
	return out
}
