package models

import (
	"structural-credit/internal/config"
	"structural-credit/internal/data"
)

// CalibrateRequest represents the request body for a calibration run
type CalibrateRequest struct {
	Observations []data.ObservationRecord `json:"observations" binding:"required,min=1,dive"`
	Config       CalibrationConfig        `json:"config,omitempty"`
	Options      CalibrationOptions       `json:"options,omitempty"`
}

// CalibrationConfig overrides the server configuration for one run.
// Zero fields keep the server's values.
type CalibrationConfig struct {
	config.ModelConfig
	Solver config.SolverConfig `json:"solver,omitempty"`
}

// CalibrationOptions contains optional run parameters
type CalibrationOptions struct {
	IncludeRecords bool     `json:"include_records,omitempty"`         // default: false
	SmoothingAlpha *float64 `json:"smoothing_alpha,omitempty"`         // default: server config; 0 disables
	WarmStart      *bool    `json:"warm_start,omitempty"`              // default: server config
	Workers        int      `json:"workers,omitempty" binding:"gte=0"` // 0 = server config
}
