package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"AssetForecast/internal/model"
)

// StaticFetcher serves fixed histories, for development and testing.
type StaticFetcher struct {
	Series map[string][]model.PricePoint
	Errors map[string]error
}

func (s *StaticFetcher) Name() string { return "static" }

func (s *StaticFetcher) FetchDailyHistory(_ context.Context, symbol string, _ int) ([]model.PricePoint, error) {
	if err, ok := s.Errors[symbol]; ok {
		return nil, err
	}
	points, ok := s.Series[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return points, nil
}

// GenerateDailyHistory produces a synthetic business-day series ending at end,
// compounding growth per year from basePrice.
func GenerateDailyHistory(basePrice, growth float64, years int, end time.Time) []model.PricePoint {
	start := end.AddDate(-years, 0, 0)
	var points []model.PricePoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		elapsed := d.Sub(start).Hours() / (24 * 365.25)
		price := basePrice * (1 + growth*elapsed)
		points = append(points, model.PricePoint{Time: d, Close: price})
	}
	return points
}

// Collector fetches price histories through a rate limiter and circuit breaker.
type Collector struct {
	Fetcher Fetcher
	Years   int

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewCollector creates a Collector allowing rps requests per second with the given burst.
func NewCollector(fetcher Fetcher, years int, rps float64, burst int) *Collector {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	st := gobreaker.Settings{
		Name:     fetcher.Name(),
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).
				Msg("data source breaker state changed")
		},
	}
	return &Collector{
		Fetcher: fetcher,
		Years:   years,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// History returns the daily closing prices for symbol in ascending order.
func (c *Collector) History(ctx context.Context, symbol string) (model.PriceSeries, error) {
	series := model.PriceSeries{Symbol: symbol}
	if err := c.limiter.Wait(ctx); err != nil {
		return series, fmt.Errorf("wait for rate limiter: %w", err)
	}

	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.Fetcher.FetchDailyHistory(ctx, symbol, c.Years)
	})
	if err != nil {
		return series, fmt.Errorf("fetch %s history from %s: %w", symbol, c.Fetcher.Name(), err)
	}

	points := cleanPoints(v.([]model.PricePoint))
	series.Points = points
	series.FetchedAt = time.Now()
	log.Debug().Str("ticker", symbol).Str("source", c.Fetcher.Name()).Int("points", len(points)).
		Msg("fetched price history")
	return series, nil
}

// cleanPoints drops non-positive prices and enforces strictly increasing time,
// keeping the later of two observations sharing a timestamp.
func cleanPoints(in []model.PricePoint) []model.PricePoint {
	out := make([]model.PricePoint, 0, len(in))
	for _, p := range in {
		if p.Close > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(p.Time) {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}
