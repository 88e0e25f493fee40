package model

import "math"

// Status is the outcome class of one calibration.
// Keep these values stable; they are written to CSV and JSON.
type Status string

const (
	StatusConverged  Status = "CONVERGED"
	StatusDegenerate Status = "DEGENERATE"
	StatusFailed     Status = "FAILED"
)

// Reason qualifies a FAILED or DEGENERATE status.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonInvalidInput   Reason = "INVALID_INPUT"
	ReasonNonConvergence Reason = "NON_CONVERGENCE"
	ReasonImplausible    Reason = "IMPLAUSIBLE"
	ReasonAtFloor        Reason = "AT_FLOOR"
	ReasonClamped        Reason = "CLAMPED"
)

// CalibratedState is the solver output for one observation.
// V and SigmaV are NaN whenever Status is FAILED; they are never zero-filled.
type CalibratedState struct {
	V      float64
	SigmaV float64

	Status Status
	Reason Reason
	Detail string

	Iterations int
	Clamps     int
	Retried    bool
}

// Usable reports whether risk measures may be derived from the state.
func (s CalibratedState) Usable() bool {
	return s.Status == StatusConverged || s.Status == StatusDegenerate
}

// Failed builds a FAILED state with undefined latent values.
func Failed(reason Reason, detail string) CalibratedState {
	return CalibratedState{
		V:      math.NaN(),
		SigmaV: math.NaN(),
		Status: StatusFailed,
		Reason: reason,
		Detail: detail,
	}
}
