// Package metrics exposes Prometheus collectors for history fetches and model fits.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the forecaster's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Fetches     *prometheus.CounterVec
	Fits        *prometheus.CounterVec
	FitDuration *prometheus.HistogramVec
	Records     prometheus.Counter
	LastRun     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetforecast_history_fetches_total",
				Help: "Price history fetches by outcome",
			},
			[]string{"outcome"},
		),
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetforecast_model_fits_total",
				Help: "Model fits by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		FitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetforecast_model_fit_duration_seconds",
				Help:    "Duration of a single model fit and forecast",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"model"},
		),
		Records: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "assetforecast_records_total",
				Help: "Forecast records produced",
			},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "assetforecast_last_run_timestamp_seconds",
				Help: "Unix time of the last completed forecast run",
			},
		),
	}
	reg.MustRegister(m.Fetches, m.Fits, m.FitDuration, m.Records, m.LastRun)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveFetch counts one history fetch.
func (m *Metrics) ObserveFetch(err error) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(outcome(err)).Inc()
}

// ObserveFit counts one model fit and records its duration.
func (m *Metrics) ObserveFit(model string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Fits.WithLabelValues(model, outcome(err)).Inc()
	m.FitDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveRun records the completion of a run that produced n records.
func (m *Metrics) ObserveRun(n int) {
	if m == nil {
		return
	}
	m.Records.Add(float64(n))
	m.LastRun.SetToCurrentTime()
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
