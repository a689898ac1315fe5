package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetForecast/internal/collector"
	"AssetForecast/internal/forecast"
	"AssetForecast/internal/metrics"
	"AssetForecast/internal/model"
)

var goldCloses = []float64{
	1420, 1566, 1657, 1202, 1184, 1061, 1146, 1303,
	1281, 1517, 1895, 1828, 1824, 2063, 2641,
}

// dailyFromYearly spreads each yearly close over a few trading days so the
// resampled series reproduces closes exactly.
func dailyFromYearly(startYear int, closes []float64) []model.PricePoint {
	var points []model.PricePoint
	for i, c := range closes {
		y := startYear + i
		points = append(points,
			model.PricePoint{Time: time.Date(y, time.March, 2, 0, 0, 0, 0, time.UTC), Close: c * 0.97},
			model.PricePoint{Time: time.Date(y, time.July, 1, 0, 0, 0, 0, time.UTC), Close: c * 1.02},
			model.PricePoint{Time: time.Date(y, time.December, 30, 0, 0, 0, 0, time.UTC), Close: c},
		)
	}
	return points
}

func newTestEngine(f *collector.StaticFetcher, horizon int) *Engine {
	return New(collector.NewCollector(f, 15, 0, 1), horizon, nil)
}

func TestRun_FetchFailureIsolatedFromOtherTicker(t *testing.T) {
	f := &collector.StaticFetcher{
		Series: map[string][]model.PricePoint{"GC=F": dailyFromYearly(2010, goldCloses)},
		Errors: map[string]error{"BAD": errors.New("lookup failed")},
	}
	rep := newTestEngine(f, 10).Run(context.Background(), []Request{
		{Ticker: "BAD", Amount: 5},
		{Ticker: "GC=F", Amount: 2},
	})

	require.Len(t, rep.Records, 30)
	assert.Empty(t, rep.RecordsFor("BAD"))
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, model.FailureDataFetch, rep.Failures[0].Kind)
	assert.Equal(t, "BAD", rep.Failures[0].Ticker)
	assert.Empty(t, rep.Failures[0].Model)
	assert.False(t, rep.HasInconsistency())

	models := []string{"ARIMA", "Exponential Smoothing", "Linear Regression"}
	for i, r := range rep.Records {
		assert.Equal(t, "GC=F", r.Ticker)
		assert.Equal(t, models[i/10], r.Model)
		assert.Equal(t, 2025+i%10, r.Year)
		assert.Equal(t, r.ForecastPrice*2, r.ForecastValue)
		assert.LessOrEqual(t, r.LowerPrice, r.ForecastPrice)
		assert.LessOrEqual(t, r.ForecastPrice, r.UpperPrice)
	}
	assert.Equal(t, goldCloses, rep.Histories["GC=F"].Closes())
}

func TestRun_TickerOrderFollowsInput(t *testing.T) {
	f := &collector.StaticFetcher{Series: map[string][]model.PricePoint{
		"A": dailyFromYearly(2010, goldCloses),
		"B": dailyFromYearly(2012, goldCloses[:10]),
	}}
	rep := newTestEngine(f, 2).Run(context.Background(), []Request{{Ticker: "B", Amount: 1}, {Ticker: "A", Amount: 1}})

	require.Len(t, rep.Records, 12)
	assert.Equal(t, "B", rep.Records[0].Ticker)
	assert.Equal(t, 2022, rep.Records[0].Year)
	assert.Equal(t, "A", rep.Records[6].Ticker)
	assert.Equal(t, 2025, rep.Records[6].Year)
}

func TestRun_ConstantSeriesDropsOnlyARIMA(t *testing.T) {
	f := &collector.StaticFetcher{Series: map[string][]model.PricePoint{
		"FLAT": dailyFromYearly(2020, []float64{50, 50, 50, 50, 50}),
	}}
	// intra-year noise does not matter, the year-end closes are all 50
	rep := newTestEngine(f, 4).Run(context.Background(), []Request{{Ticker: "FLAT", Amount: 1}})

	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "ARIMA", rep.Failures[0].Model)
	assert.Equal(t, model.FailureModelFit, rep.Failures[0].Kind)

	require.Len(t, rep.Records, 8)
	for _, r := range rep.Records[:4] {
		assert.Equal(t, "Exponential Smoothing", r.Model)
		assert.Equal(t, 50.0, r.ForecastPrice)
		assert.Equal(t, r.ForecastPrice, r.LowerPrice)
		assert.Equal(t, r.ForecastPrice, r.UpperPrice)
	}
	assert.Equal(t, "Linear Regression", rep.Records[4].Model)
}

func TestRun_SingleYearFailsEveryModel(t *testing.T) {
	f := &collector.StaticFetcher{Series: map[string][]model.PricePoint{
		"NEW": dailyFromYearly(2024, []float64{12}),
		"GC=F": dailyFromYearly(2010, goldCloses),
	}}
	rep := newTestEngine(f, 10).Run(context.Background(), []Request{{Ticker: "NEW"}, {Ticker: "GC=F"}})

	assert.Len(t, rep.Failures, 3)
	for _, fl := range rep.Failures {
		assert.Equal(t, "NEW", fl.Ticker)
		assert.Equal(t, model.FailureModelFit, fl.Kind)
	}
	assert.Empty(t, rep.RecordsFor("NEW"))
	assert.Len(t, rep.RecordsFor("GC=F"), 30)
}

func TestRun_EmptySeriesSkipsTicker(t *testing.T) {
	f := &collector.StaticFetcher{Series: map[string][]model.PricePoint{"EMPTY": {}}}
	rep := newTestEngine(f, 10).Run(context.Background(), []Request{{Ticker: "EMPTY", Amount: 1}})

	assert.Empty(t, rep.Records)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, model.FailureEmptySeries, rep.Failures[0].Kind)
	_, ok := rep.Histories["EMPTY"]
	assert.False(t, ok)
}

type panicky struct{}

func (panicky) Name() string { return "Panicky" }

func (panicky) Forecast(model.YearlySeries, int) (*model.ForecastResult, error) {
	panic("index out of range")
}

func TestRun_PanickingModelIsInconsistencyAndIsolated(t *testing.T) {
	f := &collector.StaticFetcher{Series: map[string][]model.PricePoint{"GC=F": dailyFromYearly(2010, goldCloses)}}
	e := newTestEngine(f, 3)
	e.Models = []forecast.Forecaster{panicky{}, forecast.NewLinearTrend()}

	rep := e.Run(context.Background(), []Request{{Ticker: "GC=F", Amount: 1}})

	assert.True(t, rep.HasInconsistency())
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "Panicky", rep.Failures[0].Model)
	assert.Len(t, rep.Records, 3)
}

func TestRun_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := &collector.StaticFetcher{
		Series: map[string][]model.PricePoint{"GC=F": dailyFromYearly(2010, goldCloses)},
		Errors: map[string]error{"BAD": errors.New("boom")},
	}
	e := New(collector.NewCollector(f, 15, 0, 1), 10, m)
	e.Run(context.Background(), []Request{{Ticker: "GC=F", Amount: 1}, {Ticker: "BAD", Amount: 1}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fits.WithLabelValues("ARIMA", "success")))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.Records))
}

func TestNew_DefaultsHorizon(t *testing.T) {
	e := New(nil, 0, nil)
	assert.Equal(t, forecast.DefaultHorizon, e.Horizon)
	assert.Len(t, e.Models, 3)
}
