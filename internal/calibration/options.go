package calibration

// Options holds solver parameters.
type Options struct {
	// Tolerance is the absolute bound both residuals must meet: price units for the
	// equity equation, price*volatility units for the leverage equation.
	Tolerance float64

	// MaxIterations caps Newton steps per attempt. This is the only thing that stops a
	// pathological observation, so it must be positive.
	MaxIterations int

	// ClampFraction is the share of iterations allowed to hit a floor before a
	// converged result is reported as DEGENERATE.
	ClampFraction float64

	// PerturbFactor scales the initial asset volatility for the single retry.
	PerturbFactor float64

	// AssetFloorRatio sets the asset value floor as a fraction of D.
	AssetFloorRatio float64

	// VolatilityFloor is the smallest asset volatility an iterate may take.
	VolatilityFloor float64

	// MaxAssetVolatility rejects converged roots that are not economically plausible.
	MaxAssetVolatility float64

	// MinAssetToEquity rejects converged roots whose asset value is not at least this
	// multiple of the equity value.
	MinAssetToEquity float64

	// MaxLineSearch bounds step halvings per Newton iteration.
	MaxLineSearch int
}

// DefaultOptions are the values used for any zero field.
var DefaultOptions = Options{
	Tolerance:          1e-6,
	MaxIterations:      100,
	ClampFraction:      0.5,
	PerturbFactor:      2,
	AssetFloorRatio:    1e-6,
	VolatilityFloor:    1e-4,
	MaxAssetVolatility: 2,
	MinAssetToEquity:   1.01,
	MaxLineSearch:      30,
}

func (o Options) withDefaults() Options {
	d := DefaultOptions
	if o.Tolerance > 0 {
		d.Tolerance = o.Tolerance
	}
	if o.MaxIterations > 0 {
		d.MaxIterations = o.MaxIterations
	}
	if o.ClampFraction > 0 {
		d.ClampFraction = o.ClampFraction
	}
	if o.PerturbFactor > 0 {
		d.PerturbFactor = o.PerturbFactor
	}
	if o.AssetFloorRatio > 0 {
		d.AssetFloorRatio = o.AssetFloorRatio
	}
	if o.VolatilityFloor > 0 {
		d.VolatilityFloor = o.VolatilityFloor
	}
	if o.MaxAssetVolatility > 0 {
		d.MaxAssetVolatility = o.MaxAssetVolatility
	}
	if o.MinAssetToEquity > 0 {
		d.MinAssetToEquity = o.MinAssetToEquity
	}
	if o.MaxLineSearch > 0 {
		d.MaxLineSearch = o.MaxLineSearch
	}
	return d
}
