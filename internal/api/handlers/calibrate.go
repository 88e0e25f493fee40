package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"structural-credit/internal/analysis"
	"structural-credit/internal/api/models"
	"structural-credit/internal/batch"
	"structural-credit/internal/calibration"
	"structural-credit/internal/config"
	"structural-credit/internal/data"
)

// statusClientClosedRequest reports a request the client abandoned mid-run.
const statusClientClosedRequest = 499

// Run is a finished calibration kept in the run cache.
type Run struct {
	Result   *batch.Result
	Smoothed bool
}

// CalibrationHandler handles calibration runs and their stored results
type CalibrationHandler struct {
	cfg      *config.Config
	runs     *data.RunCache[*Run]
	recorder batch.Recorder
	log      zerolog.Logger
}

// NewCalibrationHandler creates a handler that calibrates against cfg and stores
// finished runs in runs. recorder may be nil.
func NewCalibrationHandler(cfg *config.Config, runs *data.RunCache[*Run], recorder batch.Recorder, log zerolog.Logger) *CalibrationHandler {
	return &CalibrationHandler{cfg: cfg, runs: runs, recorder: recorder, log: log}
}

// Calibrate handles POST /api/v1/calibrate
func (h *CalibrationHandler) Calibrate(c *gin.Context) {
	var req models.CalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	cfg, err := h.buildConfig(req)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	variant, err := cfg.Model.Boundary.Variant()
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}

	obs, err := data.ConvertRecords(req.Observations, cfg.Model.TimeToMaturity)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_OBSERVATIONS", err.Error())
		return
	}

	engine := batch.New(
		calibration.New(cfg.Solver.ToOptions()),
		variant,
		batch.Options{Workers: cfg.Batch.Workers, WarmStart: cfg.Batch.WarmStart},
		batch.WithLogger(h.log),
		batch.WithRecorder(h.recorder),
	)
	result, err := engine.Run(c.Request.Context(), obs)
	if errors.Is(err, context.Canceled) {
		h.log.Info().Int("observations", len(obs)).Msg("calibration cancelled by client")
		respondError(c, statusClientClosedRequest, "REQUEST_CANCELLED", err.Error())
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "CALIBRATION_ERROR", err.Error())
		return
	}

	run := &Run{Result: result}
	if !cfg.Smoothing.Disabled {
		if err := analysis.SmoothPD(result.Records, cfg.Smoothing.Alpha); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
			return
		}
		run.Smoothed = true
	}
	id := h.runs.Put(run)

	resp := models.CalibrateResponse{
		ID:      id,
		Status:  "completed",
		Variant: result.Variant,
		Summary: models.NewSummary(result.Summary, result.Elapsed),
	}
	if req.Options.IncludeRecords {
		resp.Records = models.NewRiskRecords(result.Records)
	}
	c.JSON(http.StatusOK, resp)
}

// GetRecords handles GET /api/v1/runs/:id/records
func (h *CalibrationHandler) GetRecords(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.RecordsResponse{
		ID:      c.Param("id"),
		Variant: run.Result.Variant,
		Records: models.NewRiskRecords(run.Result.Records),
	})
}

// GetStability handles GET /api/v1/runs/:id/stability
// Ranking uses the smoothed series when the run was smoothed.
func (h *CalibrationHandler) GetStability(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}

	raw := analysis.Stability(run.Result.Records, analysis.RawPD)
	resp := models.StabilityResponse{ID: c.Param("id"), Series: "PD", Firms: models.NewFirmStability(raw)}
	ranked := raw
	if run.Smoothed {
		smoothed := analysis.Stability(run.Result.Records, analysis.SmoothedPD)
		resp.Series = "PD_smoothed"
		resp.Firms = models.NewFirmStability(smoothed)
		resp.Comparison = models.NewComparisons(analysis.CompareStability(raw, smoothed))
		ranked = smoothed
	}
	resp.Ranking = models.NewRankings(analysis.RankByMeanPD(ranked))
	c.JSON(http.StatusOK, resp)
}

func (h *CalibrationHandler) lookup(c *gin.Context) (*Run, bool) {
	id := c.Param("id")
	run, ok := h.runs.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "RUN_NOT_FOUND", fmt.Sprintf("run %q not found or expired", id))
		return nil, false
	}
	return run, true
}

// buildConfig overlays the request's settings on a copy of the server config.
func (h *CalibrationHandler) buildConfig(req models.CalibrateRequest) (*config.Config, error) {
	cfg := *h.cfg
	cfg.Model = config.MergeModel(cfg.Model, req.Config.ModelConfig)
	cfg.Solver = config.MergeSolver(cfg.Solver, req.Config.Solver)

	if req.Options.Workers > 0 {
		cfg.Batch.Workers = req.Options.Workers
	}
	if req.Options.WarmStart != nil {
		cfg.Batch.WarmStart = *req.Options.WarmStart
	}
	if a := req.Options.SmoothingAlpha; a != nil {
		if *a == 0 {
			cfg.Smoothing.Disabled = true
		} else {
			cfg.Smoothing.Alpha = *a
			cfg.Smoothing.Disabled = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
