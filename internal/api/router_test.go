package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structural-credit/internal/api/handlers"
	"structural-credit/internal/api/models"
	"structural-credit/internal/config"
	"structural-credit/internal/data"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	runs := data.NewRunCache[*handlers.Run](time.Hour, 0)
	t.Cleanup(runs.Close)
	return NewHandler(Deps{
		Config:   config.Default(),
		Logger:   zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
		Runs:     runs,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const calibrateBody = `{
  "observations": [
    {"date": "2024-01-02", "firm_id": "ACME", "equity_value": 50, "equity_vol": 0.30, "debt": 100, "risk_free_rate": 0.03},
    {"date": "2024-01-03", "firm_id": "ACME", "equity_value": 52, "equity_vol": 0.29, "debt": 100, "risk_free_rate": 0.03},
    {"date": "2024-01-02", "firm_id": "BUST", "equity_value": -5, "equity_vol": 0.30, "debt": 100, "risk_free_rate": 0.03}
  ],
  "options": {"include_records": true}
}`

func TestHealthAndVariants(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/variants", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.VariantsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Variants, 2)
	assert.Equal(t, "maturity", resp.Variants[0].Name)
	assert.Equal(t, "continuous_barrier", resp.Variants[1].Name)
}

func TestCalibrateAndFetchRun(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/api/v1/calibrate", calibrateBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CalibrateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "maturity", resp.Variant)
	assert.Equal(t, 3, resp.Summary.Total)
	assert.Equal(t, 2, resp.Summary.Converged)
	assert.Equal(t, 1, resp.Summary.ByReason["INVALID_INPUT"])

	require.Len(t, resp.Records, 3)
	first := resp.Records[0]
	assert.Equal(t, "CONVERGED", first.Status)
	require.NotNil(t, first.V)
	assert.InDelta(t, 147.04, *first.V, 0.01)
	require.NotNil(t, first.PDSmoothed)
	assert.Equal(t, *first.PD, *first.PDSmoothed)

	bust := resp.Records[2]
	assert.Equal(t, "FAILED", bust.Status)
	assert.Equal(t, "INVALID_INPUT", bust.Reason)
	assert.Nil(t, bust.V)
	assert.Nil(t, bust.PD)

	w = do(t, h, http.MethodGet, "/api/v1/runs/"+resp.ID+"/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	var records models.RecordsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records.Records, 3)

	w = do(t, h, http.MethodGet, "/api/v1/runs/"+resp.ID+"/stability", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stability models.StabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stability))
	assert.Equal(t, "PD_smoothed", stability.Series)
	require.Len(t, stability.Ranking, 2)
	assert.Equal(t, "ACME", stability.Ranking[0].FirmID)
	assert.Nil(t, stability.Ranking[1].MeanPD)

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "calibrations_total")
	assert.Contains(t, w.Body.String(), `status="CONVERGED"`)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestCalibrateBarrierOverride(t *testing.T) {
	h := newTestHandler(t)
	body := `{
  "observations": [{"date": "2024-01-02", "firm_id": "ACME", "equity_value": 50, "equity_vol": 0.30, "debt": 100, "risk_free_rate": 0.03}],
  "config": {"time_to_maturity": 2, "boundary": {"name": "continuous_barrier", "barrier_ratio": 0.7}},
  "options": {"smoothing_alpha": 0}
}`
	w := do(t, h, http.MethodPost, "/api/v1/calibrate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CalibrateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "continuous_barrier", resp.Variant)
	assert.Empty(t, resp.Records)

	w = do(t, h, http.MethodGet, "/api/v1/runs/"+resp.ID+"/records", "")
	var records models.RecordsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records.Records, 1)
	assert.Equal(t, 2.0, *records.Records[0].T)
	assert.Nil(t, records.Records[0].PDSmoothed)
}

func TestCalibrateRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{`, "INVALID_REQUEST"},
		{"no observations", `{"observations": []}`, "INVALID_REQUEST"},
		{"barrier without ratio", `{"observations": [{"firm_id": "A"}], "config": {"boundary": {"name": "continuous_barrier"}}}`, "INVALID_CONFIG"},
		{"bad alpha", `{"observations": [{"firm_id": "A"}], "options": {"smoothing_alpha": 3}}`, "INVALID_CONFIG"},
		{"bad date", `{"observations": [{"firm_id": "A", "date": "yesterday"}]}`, "INVALID_OBSERVATIONS"},
	}
	for _, tc := range cases {
		w := do(t, h, http.MethodPost, "/api/v1/calibrate", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.name)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), tc.name)
		assert.Equal(t, tc.code, resp.Error.Code, tc.name)
	}
}

func TestCalibrateCancelledByClient(t *testing.T) {
	h := newTestHandler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calibrate", strings.NewReader(calibrateBody)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 499, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "REQUEST_CANCELLED", resp.Error.Code)
}

func TestUnknownRun(t *testing.T) {
	h := newTestHandler(t)
	w := do(t, h, http.MethodGet, "/api/v1/runs/nope/stability", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RUN_NOT_FOUND")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/calibrate", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
