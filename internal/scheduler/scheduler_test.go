package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AssetForecast/internal/collector"
	"AssetForecast/internal/config"
	"AssetForecast/internal/engine"
	"AssetForecast/internal/holdings"
	"AssetForecast/internal/model"
	"AssetForecast/internal/recorder"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return c.err
}

type captureRecorder struct {
	recorder.NoopRecorder
	runs []*recorder.Run
}

func (c *captureRecorder) RecordRun(run *recorder.Run) error {
	c.runs = append(c.runs, run)
	return nil
}

func newTestScheduler(t *testing.T, sender Sender, rec recorder.Recorder) *Scheduler {
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	f := &collector.StaticFetcher{
		Series: map[string][]model.PricePoint{
			"AAPL": collector.GenerateDailyHistory(100, 0.1, 10, end),
		},
		Errors: map[string]error{"BAD": errors.New("boom")},
	}
	eng := engine.New(collector.NewCollector(f, 10, 0, 1), 3, nil)

	hm, err := holdings.NewManager(filepath.Join(t.TempDir(), "holdings.json"))
	require.NoError(t, err)
	require.NoError(t, hm.Set(map[string]float64{"AAPL": 4}))

	watchlist := []config.Ticker{{Symbol: "AAPL"}, {Symbol: "BAD", Amount: 2}}
	return NewScheduler(context.Background(), eng, hm, rec, sender, watchlist)
}

func TestRequests_ConfiguredAmountThenHoldings(t *testing.T) {
	s := newTestScheduler(t, nil, nil)
	assert.Equal(t, []engine.Request{
		{Ticker: "AAPL", Amount: 4},
		{Ticker: "BAD", Amount: 2},
	}, s.Requests())
}

func TestRunNow_RecordsAndNotifies(t *testing.T) {
	sender := &captureSender{}
	rec := &captureRecorder{}
	s := newTestScheduler(t, sender, rec)

	rep := s.RunNow()
	require.NotEmpty(t, rep.RecordsFor("AAPL"))
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, model.FailureDataFetch, rep.Failures[0].Kind)

	for _, r := range rep.RecordsFor("AAPL") {
		assert.InDelta(t, r.ForecastPrice*4, r.ForecastValue, 1e-9)
	}

	require.Len(t, rec.runs, 1)
	assert.Equal(t, []string{"AAPL", "BAD"}, rec.runs[0].Tickers)
	require.Len(t, sender.msgs, 1)
	assert.Contains(t, sender.msgs[0], "<b>AAPL</b>")
	assert.Contains(t, sender.msgs[0], "BAD DATA_FETCH")
}

func TestRunNow_SendFailureDoesNotPanic(t *testing.T) {
	sender := &captureSender{err: errors.New("down")}
	s := newTestScheduler(t, sender, nil)
	rep := s.RunNow()
	assert.NotNil(t, rep)
}

func TestHandleCommand(t *testing.T) {
	sender := &captureSender{}
	s := newTestScheduler(t, sender, nil)

	assert.Contains(t, s.HandleCommand(context.Background(), "/holdings"), "AAPL: 4")
	assert.Contains(t, s.HandleCommand(context.Background(), "hello"), "/forecast")

	assert.Empty(t, s.HandleCommand(context.Background(), "/forecast"))
	assert.Len(t, sender.msgs, 1)
}

func TestRegisterAll_RejectsBadCronExpression(t *testing.T) {
	s := newTestScheduler(t, nil, nil)
	require.Error(t, s.RegisterAll("not a cron"))
	require.NoError(t, s.RegisterAll("0 0 9 * * 1"))
	assert.Len(t, s.Cron.Entries(), 1)
}
