package analysis

import (
	"fmt"
	"sort"

	"structural-credit/internal/model"
)

// SmoothPD fills PDSmoothed with an exponentially weighted mean of each firm's PD
// series. Only CONVERGED records take part; the weights are normalized over the
// observations seen so far, so early values are not biased toward zero:
//
//	y_t = sum_i (1-alpha)^i x_{t-i} / sum_i (1-alpha)^i
//
// Records are updated in place and keep their order.
func SmoothPD(records []model.RiskRecord, alpha float64) error {
	if !(alpha > 0) || alpha > 1 {
		return fmt.Errorf("smoothing alpha must be in (0, 1], got %v", alpha)
	}

	for _, idx := range convergedByFirm(records) {
		var num, den float64
		for _, i := range idx {
			num = records[i].PD + (1-alpha)*num
			den = 1 + (1-alpha)*den
			records[i].PDSmoothed = num / den
		}
	}
	return nil
}

// convergedByFirm returns, per firm, the indices of CONVERGED records in date order.
func convergedByFirm(records []model.RiskRecord) map[string][]int {
	out := map[string][]int{}
	for i, r := range records {
		if r.Converged() {
			out[r.FirmID] = append(out[r.FirmID], i)
		}
	}
	for _, idx := range out {
		sort.SliceStable(idx, func(a, b int) bool {
			return records[idx[a]].Date.Before(records[idx[b]].Date)
		})
	}
	return out
}
