package recorder

import (
	"time"

	"github.com/google/uuid"

	"AssetForecast/internal/engine"
	"AssetForecast/internal/model"
)

// Run is one forecast run ready for persistence.
type Run struct {
	ID        string
	StartedAt time.Time
	Horizon   int
	Tickers   []string
	Records   []model.ForecastRecord
	Failures  []model.Failure
}

// NewRun captures an engine report under a fresh run ID.
func NewRun(rep *engine.Report) *Run {
	tickers := make([]string, len(rep.Requests))
	for i, r := range rep.Requests {
		tickers[i] = r.Ticker
	}
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: rep.StartedAt,
		Horizon:   rep.Horizon,
		Tickers:   tickers,
		Records:   rep.Records,
		Failures:  rep.Failures,
	}
}

// RunSummary is a stored run without its rows.
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	Horizon      int
	Tickers      string
	RecordCount  int
	FailureCount int
}

// Recorder persists forecast runs for later comparison.
type Recorder interface {
	RecordRun(run *Run) error
	RecentRuns(limit int) ([]RunSummary, error)
	RunRecords(runID string) ([]model.ForecastRecord, error)
	Close() error
}
