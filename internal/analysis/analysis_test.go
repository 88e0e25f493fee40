package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"structural-credit/internal/model"
)

func day(n int) time.Time { return time.Date(2024, 3, 1+n, 0, 0, 0, 0, time.UTC) }

func converged(firm string, d int, pd float64) model.RiskRecord {
	r := model.NewRiskRecord(model.MarketObservation{FirmID: firm, Date: day(d), E: 50, SigmaE: 0.3, D: 100, R: 0.03, T: 1})
	r.Status = model.StatusConverged
	r.V = 150
	r.SigmaV = 0.1
	r.DD = 3
	r.PD = pd
	return r
}

func failed(firm string, d int) model.RiskRecord {
	r := model.NewRiskRecord(model.MarketObservation{FirmID: firm, Date: day(d)})
	r.Status = model.StatusFailed
	r.Reason = model.ReasonNonConvergence
	return r
}

func TestSmoothPDAdjustedWeights(t *testing.T) {
	// Out of date order on purpose.
	records := []model.RiskRecord{converged("A", 1, 0), failed("A", 2), converged("A", 0, 1)}
	require.NoError(t, SmoothPD(records, 0.5))

	assert.InDelta(t, 1.0/3, records[0].PDSmoothed, 1e-15)
	assert.True(t, math.IsNaN(records[1].PDSmoothed))
	assert.Equal(t, 1.0, records[2].PDSmoothed)
}

func TestSmoothPDAlphaOneIsIdentity(t *testing.T) {
	records := []model.RiskRecord{converged("A", 0, 0.2), converged("A", 1, 0.5), converged("B", 0, 0.9)}
	require.NoError(t, SmoothPD(records, 1))
	for _, r := range records {
		assert.Equal(t, r.PD, r.PDSmoothed)
	}
}

func TestSmoothPDRejectsBadAlpha(t *testing.T) {
	assert.Error(t, SmoothPD(nil, 0))
	assert.Error(t, SmoothPD(nil, 1.5))
	assert.Error(t, SmoothPD(nil, math.NaN()))
}

func TestStability(t *testing.T) {
	records := []model.RiskRecord{
		converged("A", 0, 0.1),
		converged("A", 1, 0.2),
		failed("A", 2),
		converged("A", 3, 0.1),
		converged("A", 4, 0.3),
		failed("Z", 0),
	}
	stats := Stability(records, RawPD)
	require.Len(t, stats, 2)

	a := stats[0]
	assert.Equal(t, "A", a.FirmID)
	assert.Equal(t, 5, a.Observations)
	assert.Equal(t, 4, a.Converged)
	assert.Equal(t, day(0), a.Start)
	assert.Equal(t, day(4), a.End)
	assert.InDelta(t, 0.175, a.MeanPD, 1e-12)
	assert.InDelta(t, math.Sqrt(0.0275/3), a.StdPD, 1e-12)
	assert.InDelta(t, a.StdPD/0.175, a.CV, 1e-12)
	assert.InDelta(t, 0.1, a.P05PD, 1e-12)
	assert.InDelta(t, 0.285, a.P95PD, 1e-12)
	assert.InDelta(t, 0.4/3, a.MeanAbsChange, 1e-12)
	assert.InDelta(t, 0.2, a.MaxAbsChange, 1e-12)
	assert.InDelta(t, 0.75, a.DirectionChangeShare, 1e-12)
	assert.InDelta(t, 2.0, a.MeanLeverage, 1e-12)
	assert.Equal(t, 150.0, a.MeanV)

	z := stats[1]
	assert.Equal(t, "Z", z.FirmID)
	assert.Equal(t, 1, z.Observations)
	assert.Zero(t, z.Converged)
	assert.True(t, math.IsNaN(z.MeanPD))
}

func TestCompareStabilityAfterSmoothing(t *testing.T) {
	var records []model.RiskRecord
	for i := 0; i < 30; i++ {
		pd := 0.01
		if i%2 == 0 {
			pd = 0.05
		}
		records = append(records, converged("A", i, pd))
	}
	require.NoError(t, SmoothPD(records, 0.1))

	cmp := CompareStability(Stability(records, RawPD), Stability(records, SmoothedPD))
	require.Len(t, cmp, 1)
	assert.Equal(t, "A", cmp[0].FirmID)
	assert.Less(t, cmp[0].SmoothedStd, cmp[0].RawStd)
	assert.Greater(t, cmp[0].ReductionPct, 50.0)
}

func TestRankByMeanPD(t *testing.T) {
	stats := []FirmStability{
		{FirmID: "LOW", MeanPD: 0.01},
		{FirmID: "NONE", MeanPD: math.NaN()},
		{FirmID: "HIGH", MeanPD: 0.2},
		{FirmID: "MID", MeanPD: 0.05},
	}
	ranked := RankByMeanPD(stats)

	var ids []string
	for _, s := range ranked {
		ids = append(ids, s.FirmID)
	}
	assert.Equal(t, []string{"HIGH", "MID", "LOW", "NONE"}, ids)
	assert.Equal(t, "LOW", stats[0].FirmID, "input is not reordered")
}
