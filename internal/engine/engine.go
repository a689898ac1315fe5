// Package engine drives a forecast run: for each ticker it fetches history,
// resamples it to years, runs every model independently and concatenates the
// normalized rows. Failures are isolated to the smallest unit that failed.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"AssetForecast/internal/calculator"
	"AssetForecast/internal/forecast"
	"AssetForecast/internal/metrics"
	"AssetForecast/internal/model"
)

// HistorySource supplies daily price history for a ticker.
type HistorySource interface {
	History(ctx context.Context, symbol string) (model.PriceSeries, error)
}

// Report is the outcome of one run.
type Report struct {
	Horizon   int
	Requests  []Request
	Records   []model.ForecastRecord
	Failures  []model.Failure
	Histories map[string]model.YearlySeries
	StartedAt time.Time
}

// HasInconsistency reports whether any model output violated its invariants.
func (r *Report) HasInconsistency() bool {
	for _, f := range r.Failures {
		if f.Kind == model.FailureInconsistency {
			return true
		}
	}
	return false
}

// RecordsFor returns the rows belonging to ticker, in report order.
func (r *Report) RecordsFor(ticker string) []model.ForecastRecord {
	var out []model.ForecastRecord
	for _, rec := range r.Records {
		if rec.Ticker == ticker {
			out = append(out, rec)
		}
	}
	return out
}

// Engine runs the forecast pipeline.
type Engine struct {
	Source  HistorySource
	Models  []forecast.Forecaster
	Horizon int
	Metrics *metrics.Metrics
}

// New creates an Engine with the default models. A non-positive horizon uses
// forecast.DefaultHorizon.
func New(src HistorySource, horizon int, m *metrics.Metrics) *Engine {
	if horizon <= 0 {
		horizon = forecast.DefaultHorizon
	}
	return &Engine{
		Source:  src,
		Models:  forecast.Default(),
		Horizon: horizon,
		Metrics: m,
	}
}

// Run processes requests in order. Rows are ordered by ticker input order, then
// model order, then year.
func (e *Engine) Run(ctx context.Context, reqs []Request) *Report {
	rep := &Report{
		Horizon:   e.Horizon,
		Requests:  reqs,
		Histories: make(map[string]model.YearlySeries),
		StartedAt: time.Now(),
	}
	for _, req := range reqs {
		e.runTicker(ctx, req, rep)
	}
	e.Metrics.ObserveRun(len(rep.Records))
	log.Info().Int("tickers", len(reqs)).Int("records", len(rep.Records)).
		Int("failures", len(rep.Failures)).Msg("forecast run complete")
	return rep
}

func (e *Engine) runTicker(ctx context.Context, req Request, rep *Report) {
	log.Info().Str("ticker", req.Ticker).Float64("amount", req.Amount).Msg("processing ticker")

	series, err := e.Source.History(ctx, req.Ticker)
	e.Metrics.ObserveFetch(err)
	if err != nil {
		e.fail(rep, req.Ticker, "", model.FailureDataFetch, fmt.Errorf("%w: %v", forecast.ErrDataFetch, err))
		return
	}

	yearly, err := calculator.ResampleYearly(series)
	if err != nil {
		e.fail(rep, req.Ticker, "", model.FailureEmptySeries, fmt.Errorf("no yearly data: %w", err))
		return
	}
	rep.Histories[req.Ticker] = yearly

	for _, outcome := range e.forecastAll(yearly) {
		if !outcome.OK() {
			e.fail(rep, req.Ticker, outcome.Model, forecast.Classify(outcome.Err), outcome.Err)
			continue
		}
		records, err := forecast.Normalize(outcome.Result, outcome.Model, req.Ticker, req.Amount)
		if err != nil {
			e.fail(rep, req.Ticker, outcome.Model, forecast.Classify(err), err)
			continue
		}
		rep.Records = append(rep.Records, records...)
	}
}

// forecastAll runs every model against the same series. Models share nothing,
// so a failure or panic in one never affects another.
func (e *Engine) forecastAll(ys model.YearlySeries) []forecast.Outcome {
	outcomes := make([]forecast.Outcome, len(e.Models))
	for i, f := range e.Models {
		start := time.Now()
		outcomes[i] = safeRun(f, ys, e.Horizon)
		e.Metrics.ObserveFit(f.Name(), time.Since(start), outcomes[i].Err)
	}
	return outcomes
}

func safeRun(f forecast.Forecaster, ys model.YearlySeries, steps int) (out forecast.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = forecast.Outcome{
				Model: f.Name(),
				Err:   fmt.Errorf("%w: %s panicked: %v", forecast.ErrInconsistent, f.Name(), r),
			}
		}
	}()
	return forecast.Run(f, ys, steps)
}

func (e *Engine) fail(rep *Report, ticker, modelName string, kind model.FailureKind, err error) {
	rep.Failures = append(rep.Failures, model.Failure{
		Ticker:  ticker,
		Model:   modelName,
		Kind:    kind,
		Message: err.Error(),
	})

	ev := log.Warn()
	if kind == model.FailureInconsistency || errors.Is(err, forecast.ErrInconsistent) {
		ev = log.Error()
	}
	ev = ev.Str("ticker", ticker).Str("kind", string(kind)).Err(err)
	if modelName != "" {
		ev = ev.Str("model", modelName)
		ev.Msg("model failed")
		return
	}
	ev.Msg("ticker skipped")
}
