package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AssetForecast/internal/engine"
	"AssetForecast/internal/holdings"
	"AssetForecast/internal/metrics"
	"AssetForecast/internal/notifier"
	"AssetForecast/internal/scheduler"
)

var (
	flagRunNow      bool
	flagMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-forecast the configured watchlist on a schedule and report to Telegram",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&flagRunNow, "run-now", false, "Run the forecast once at startup")
	watchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateWatch(); err != nil {
		return err
	}
	if flagMetricsAddr != "" {
		cfg.Metrics.Addr = flagMetricsAddr
	}
	log.Info().Msg("asset forecast watcher starting")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	eng := engine.New(newCollector(cfg), cfg.Horizon, m)

	hm, err := holdings.NewManager(cfg.Holdings.StateFile)
	if err != nil {
		return err
	}

	rec := openRecorder(cfg.Database.SQLitePath)
	defer rec.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, eng, hm, rec, tn, cfg.Tickers)
	if err := sched.RegisterAll(cfg.Schedule.ForecastCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server started")
	}

	if flagRunNow || os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("running forecast now")
		go sched.RunNow()
	}

	log.Info().Str("cron", cfg.Schedule.ForecastCron).Msg("watcher running, press Ctrl+C to stop")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	return nil
}
