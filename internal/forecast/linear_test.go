package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearTrend_FiveYearScenario(t *testing.T) {
	ys := yearly(2019, 100, 110, 105, 120, 130)

	res, err := NewLinearTrend().Forecast(ys, 3)
	require.NoError(t, err)
	require.NoError(t, Check(res, 3))

	// OLS on t=0..4 gives 99 + 7t; s^2 = 90/3, t(0.975, 3) = 3.1824
	want := []struct {
		year   int
		point  float64
		margin float64
	}{
		{2024, 134, 25.259884453795504},
		{2025, 141, 29.167602178195352},
		{2026, 148, 33.529152359520474},
	}
	for i, w := range want {
		p := res.Points[i]
		assert.Equal(t, w.year, p.Year)
		assert.InDelta(t, w.point, p.Point, 1e-9)
		assert.InDelta(t, w.point-w.margin, p.Lower, 1e-6)
		assert.InDelta(t, w.point+w.margin, p.Upper, 1e-6)
	}

	records, err := Normalize(res, "Linear Regression", "GC=F", 2.0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, r.ForecastPrice*2.0, r.ForecastValue)
		assert.Equal(t, r.LowerPrice*2.0, r.LowerValue)
		assert.Equal(t, r.UpperPrice*2.0, r.UpperValue)
	}
}

func TestLinearTrend_TooFewPoints(t *testing.T) {
	_, err := NewLinearTrend().Forecast(yearly(2024, 100), 3)
	assert.ErrorIs(t, err, ErrModelFit)

	_, err = NewLinearTrend().Forecast(yearly(2024), 3)
	assert.ErrorIs(t, err, ErrModelFit)
}

func TestLinearTrend_TwoPointsHasUnboundedInterval(t *testing.T) {
	res, err := NewLinearTrend().Forecast(yearly(2023, 100, 120), 2)
	require.NoError(t, err)
	require.NoError(t, Check(res, 2))

	assert.InDelta(t, 140.0, res.Points[0].Point, 1e-9)
	assert.InDelta(t, 160.0, res.Points[1].Point, 1e-9)
	assert.True(t, math.IsInf(res.Points[0].Lower, -1))
	assert.True(t, math.IsInf(res.Points[0].Upper, 1))
}

func TestLinearTrend_IntervalWidensWithHorizon(t *testing.T) {
	res, err := NewLinearTrend().Forecast(yearly(2010, goldCloses...), 10)
	require.NoError(t, err)

	prev := 0.0
	for _, p := range res.Points {
		width := p.Upper - p.Lower
		assert.Greater(t, width, prev)
		prev = width
	}
}

func TestLinearTrend_ExactLineHasZeroWidth(t *testing.T) {
	res, err := NewLinearTrend().Forecast(yearly(2020, 10, 20, 30, 40), 2)
	require.NoError(t, err)
	for _, p := range res.Points {
		assert.InDelta(t, p.Point, p.Lower, 1e-9)
		assert.InDelta(t, p.Point, p.Upper, 1e-9)
	}
	assert.InDelta(t, 50.0, res.Points[0].Point, 1e-9)
}
