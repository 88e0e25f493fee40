package boundary

// ParameterInfo describes one variant parameter.
type ParameterInfo struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Default     any     `json:"default,omitempty"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// Info describes a variant for listings.
type Info struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// Catalog lists the supported variants.
func Catalog() []Info {
	return []Info{
		{
			Name:        NameMaturity,
			Description: "Merton model. Equity is a European call on assets struck at debt face value; default is only possible at maturity.",
			Parameters:  []ParameterInfo{},
		},
		{
			Name:        NameContinuousBarrier,
			Description: "Black-Cox first-passage model. Equity is a down-and-out call; default also occurs the first time assets touch barrier_ratio * D.",
			Parameters: []ParameterInfo{
				{
					Name:        "barrier_ratio",
					Type:        "float",
					Description: "Barrier level as a fraction of debt face value",
					Default:     0.7,
					Min:         0,
					Max:         1,
				},
			},
		},
	}
}
