package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetForecast/internal/model"
)

func TestYahooFetcher_ParsesChartAndSkipsNulls(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1704412800,1704240000,1704326400],
			"indicators":{"quote":[{"close":[2050.5,null,2043.1]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	f.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	points, err := f.FetchDailyHistory(context.Background(), "gold", 15)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/GC=F", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, fmt.Sprintf("period1=%d", time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC).Unix()))
	require.Len(t, points, 2)
	assert.Equal(t, 2043.1, points[0].Close, "sorted ascending")
	assert.Equal(t, 2050.5, points[1].Close)
}

func TestYahooFetcher_APIErrorIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyHistory(context.Background(), "NOPE", 15)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyHistory(context.Background(), "GC=F", 15)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "status 503")
}

func TestVsTraderFetcher_SendsKeyAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "SPX500", r.URL.Query().Get("symbol"))
		assert.Equal(t, "732", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[{"timestamp":1704326400,"close":4700},{"timestamp":1704240000,"close":null},{"timestamp":1704153600,"close":4742}]`)
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "secret", "")
	points, err := f.FetchDailyHistory(context.Background(), "SPX500", 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 4742.0, points[0].Close)
}

func TestCollector_History(t *testing.T) {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	fetcher := &StaticFetcher{Series: map[string][]model.PricePoint{
		"GC=F": GenerateDailyHistory(1200, 0.05, 3, end),
	}}
	c := NewCollector(fetcher, 3, 0, 1)

	series, err := c.History(context.Background(), "GC=F")
	require.NoError(t, err)
	assert.Equal(t, "GC=F", series.Symbol)
	assert.Greater(t, series.Len(), 700)
	assert.False(t, series.FetchedAt.IsZero())
	for i := 1; i < series.Len(); i++ {
		require.True(t, series.Points[i-1].Time.Before(series.Points[i].Time))
	}
}

func TestCollector_WrapsFetchErrors(t *testing.T) {
	fetcher := &StaticFetcher{Errors: map[string]error{"BAD": errors.New("connection refused")}}
	c := NewCollector(fetcher, 15, 0, 1)

	_, err := c.History(context.Background(), "BAD")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "fetch BAD history from static"))
}

func TestCollector_NoDataDoesNotTripBreaker(t *testing.T) {
	fetcher := &StaticFetcher{Series: map[string][]model.PricePoint{
		"OK": {{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10}},
	}}
	c := NewCollector(fetcher, 15, 0, 1)

	for i := 0; i < 10; i++ {
		_, err := c.History(context.Background(), "MISSING")
		require.ErrorIs(t, err, ErrNoData)
	}
	_, err := c.History(context.Background(), "OK")
	assert.NoError(t, err)
}

func TestCollector_BreakerOpensOnRepeatedFailures(t *testing.T) {
	fetcher := &StaticFetcher{Errors: map[string]error{"DOWN": errors.New("timeout")}}
	c := NewCollector(fetcher, 15, 0, 1)

	for i := 0; i < 5; i++ {
		_, _ = c.History(context.Background(), "DOWN")
	}
	_, err := c.History(context.Background(), "DOWN")
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestCleanPoints(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	in := []model.PricePoint{
		{Time: d(3), Close: 3},
		{Time: d(1), Close: 1},
		{Time: d(2), Close: 0},
		{Time: d(3), Close: 4},
	}
	out := cleanPoints(in)
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Close)
	assert.Equal(t, 4.0, out[1].Close)
}
