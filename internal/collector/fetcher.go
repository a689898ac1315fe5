package collector

import (
	"context"
	"errors"

	"AssetForecast/internal/model"
)

// ErrNoData means the source answered but has no history for the symbol.
// It is a per-symbol condition and does not count against the circuit breaker.
var ErrNoData = errors.New("no price data")

// Fetcher retrieves daily closing prices for a symbol.
type Fetcher interface {
	// FetchDailyHistory returns up to years of daily closes in ascending time
	// order, with missing prices already dropped.
	FetchDailyHistory(ctx context.Context, symbol string, years int) ([]model.PricePoint, error)
	Name() string
}
