package recorder

import "AssetForecast/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *Run) error                              { return nil }
func (n *NoopRecorder) RecentRuns(_ int) ([]RunSummary, error)              { return nil, nil }
func (n *NoopRecorder) RunRecords(_ string) ([]model.ForecastRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                        { return nil }
