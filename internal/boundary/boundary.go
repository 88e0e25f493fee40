package boundary

import (
	"fmt"
	"strings"

	"structural-credit/internal/pricing"
)

// Variant selects the default-triggering mechanism. The solver, the risk measures and
// the batch engine only ever talk to this interface.
type Variant interface {
	Name() string
	// Price returns model equity and its delta with respect to asset value.
	Price(p pricing.Params) pricing.Quote
	// DefaultProbability is the risk-neutral PD over horizon t. NaN when undefined.
	DefaultProbability(v, d, t, r, sigma float64) float64
	// Threshold is the terminal default point used by distance-to-default.
	Threshold(d float64) float64
}

const (
	NameMaturity          = "maturity"
	NameContinuousBarrier = "continuous_barrier"
)

// Spec is the configuration-level description of a variant.
type Spec struct {
	Name         string
	BarrierRatio float64
}

// New builds the variant a spec names.
func New(s Spec) (Variant, error) {
	switch strings.TrimSpace(s.Name) {
	case "", NameMaturity:
		return Maturity{}, nil
	case NameContinuousBarrier:
		if !(s.BarrierRatio > 0) || s.BarrierRatio > 1 {
			return nil, fmt.Errorf("barrier_ratio must be in (0, 1], got %v", s.BarrierRatio)
		}
		return ContinuousBarrier{Ratio: s.BarrierRatio}, nil
	default:
		return nil, fmt.Errorf("unsupported default boundary: %q", s.Name)
	}
}
