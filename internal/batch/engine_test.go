package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structural-credit/internal/boundary"
	"structural-credit/internal/calibration"
	"structural-credit/internal/model"
)

type countingRecorder struct {
	mu      sync.Mutex
	byState map[model.Status]int
	batches int
}

func (c *countingRecorder) RecordCalibration(_ string, st model.CalibratedState, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byState == nil {
		c.byState = map[model.Status]int{}
	}
	c.byState[st.Status]++
}

func (c *countingRecorder) RecordBatch(string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches++
}

func day(n int) time.Time { return time.Date(2024, 1, 1+n, 0, 0, 0, 0, time.UTC) }

func series() []model.MarketObservation {
	var obs []model.MarketObservation
	for i := 0; i < 5; i++ {
		obs = append(obs,
			model.MarketObservation{FirmID: "ACME", Date: day(i), E: 50 + float64(i), SigmaE: 0.30, D: 100, R: 0.03, T: 1},
			model.MarketObservation{FirmID: "GLOBEX", Date: day(i), E: 200 - float64(i), SigmaE: 0.25, D: 80, R: 0.03, T: 1},
		)
	}
	// One invalid row in the middle.
	obs[3].E = -5
	return obs
}

func TestRunKeepsInputOrderAndIsolatesFailures(t *testing.T) {
	obs := series()
	rec := &countingRecorder{}
	e := New(calibration.New(calibration.Options{}), boundary.Maturity{}, Options{Workers: 3}, WithRecorder(rec))

	res, err := e.Run(context.Background(), obs)
	require.NoError(t, err)
	require.Len(t, res.Records, len(obs))

	for i, r := range res.Records {
		assert.Equal(t, obs[i].FirmID, r.FirmID)
		assert.Equal(t, obs[i].Date, r.Date)
	}
	assert.Equal(t, model.StatusFailed, res.Records[3].Status)
	assert.Equal(t, model.ReasonInvalidInput, res.Records[3].Reason)
	assert.True(t, math.IsNaN(res.Records[3].PD))

	assert.Equal(t, len(obs), res.Summary.Total)
	assert.Equal(t, len(obs)-1, res.Summary.Converged)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Equal(t, 1, res.Summary.ByReason[model.ReasonInvalidInput])
	assert.InDelta(t, 0.9, res.Summary.SuccessRate(), 1e-12)
	assert.Equal(t, "maturity", res.Variant)

	assert.Equal(t, len(obs)-1, rec.byState[model.StatusConverged])
	assert.Equal(t, 1, rec.batches)
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	obs := series()
	solver := calibration.New(calibration.Options{})
	one, err := New(solver, boundary.ContinuousBarrier{Ratio: 0.7}, Options{Workers: 1}).Run(context.Background(), obs)
	require.NoError(t, err)
	many, err := New(solver, boundary.ContinuousBarrier{Ratio: 0.7}, Options{Workers: 8}).Run(context.Background(), obs)
	require.NoError(t, err)

	for i := range obs {
		assert.Equal(t, math.Float64bits(one.Records[i].V), math.Float64bits(many.Records[i].V), "row %d", i)
		assert.Equal(t, math.Float64bits(one.Records[i].PD), math.Float64bits(many.Records[i].PD), "row %d", i)
	}
}

func TestRunWarmStartMatchesColdStart(t *testing.T) {
	obs := series()
	solver := calibration.New(calibration.Options{Tolerance: 1e-9})
	cold, err := New(solver, boundary.Maturity{}, Options{}).Run(context.Background(), obs)
	require.NoError(t, err)
	warm, err := New(solver, boundary.Maturity{}, Options{WarmStart: true}).Run(context.Background(), obs)
	require.NoError(t, err)

	for i := range obs {
		require.Equal(t, cold.Records[i].Status, warm.Records[i].Status, "row %d", i)
		if cold.Records[i].Converged() {
			assert.InEpsilon(t, cold.Records[i].V, warm.Records[i].V, 1e-6, "row %d", i)
			assert.InEpsilon(t, cold.Records[i].SigmaV, warm.Records[i].SigmaV, 1e-6, "row %d", i)
		}
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	_, err := New(calibration.New(calibration.Options{}), boundary.Maturity{}, Options{}).Run(context.Background(), nil)
	assert.Error(t, err)

	_, err = New(calibration.New(calibration.Options{}), nil, Options{}).Run(context.Background(), series())
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(calibration.New(calibration.Options{}), boundary.Maturity{}, Options{}).Run(ctx, series())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChainsGroupByFirmInDateOrder(t *testing.T) {
	obs := []model.MarketObservation{
		{FirmID: "B", Date: day(2)},
		{FirmID: "A", Date: day(1)},
		{FirmID: "B", Date: day(0)},
		{FirmID: "A", Date: day(0)},
	}
	assert.Equal(t, [][]int{{2, 0}, {3, 1}}, chains(obs, true))
	assert.Equal(t, [][]int{{0}, {1}, {2}, {3}}, chains(obs, false))
}

func TestWriteRecords(t *testing.T) {
	obs := series()[:4]
	res, err := New(calibration.New(calibration.Options{}), boundary.Maturity{}, Options{}).Run(context.Background(), obs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, res.Records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, recordHeader, rows[0])

	assert.Equal(t, "2024-01-01", rows[1][0])
	assert.Equal(t, "ACME", rows[1][1])
	assert.Equal(t, "CONVERGED", rows[1][12])
	assert.NotEmpty(t, rows[1][7])

	// Failed row: undefined numbers are empty, never zero.
	failed := rows[4]
	assert.Equal(t, "-5", failed[2])
	assert.Equal(t, "", failed[7])
	assert.Equal(t, "", failed[10])
	assert.Equal(t, "FAILED", failed[12])
	assert.Equal(t, "INVALID_INPUT", failed[13])
}

func TestSummarizeWithoutConverged(t *testing.T) {
	s := Summarize([]model.RiskRecord{{Status: model.StatusFailed, Reason: model.ReasonNonConvergence}})
	assert.Equal(t, 1, s.Failed)
	assert.True(t, math.IsNaN(s.MeanPD))
	assert.True(t, math.IsNaN(Summary{}.SuccessRate()))
}
