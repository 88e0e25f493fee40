package analysis

import (
	"math"
	"sort"
)

// RankByMeanPD sorts firms by descending mean PD. Firms without a defined mean go last.
func RankByMeanPD(stats []FirmStability) []FirmStability {
	out := append([]FirmStability(nil), stats...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].MeanPD, out[j].MeanPD
		switch {
		case math.IsNaN(a):
			return false
		case math.IsNaN(b):
			return true
		case a != b:
			return a > b
		default:
			return out[i].FirmID < out[j].FirmID
		}
	})
	return out
}
