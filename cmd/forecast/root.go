package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AssetForecast/internal/chart"
	"AssetForecast/internal/collector"
	"AssetForecast/internal/config"
	"AssetForecast/internal/engine"
	"AssetForecast/internal/holdings"
	"AssetForecast/internal/recorder"
	"AssetForecast/internal/report"
)

var (
	flagConfig   string
	flagTickers  string
	flagAmounts  string
	flagHorizon  int
	flagChartDir string
	flagNoRecord bool
	flagLogLevel string

	cfg *config.Config
)

var errInconsistent = errors.New("forecast run produced inconsistent model output")

var rootCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Multi-model yearly price forecasts",
	Long: "Forecast yearly prices for one or more tickers with ARIMA, exponential smoothing " +
		"and linear regression, scaled by your holding amount.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runForecast,
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", defaultConfig, "Path to YAML config")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	rootCmd.Flags().StringVarP(&flagTickers, "tickers", "t", "", "Comma-separated tickers; prompts when empty")
	rootCmd.Flags().StringVarP(&flagAmounts, "amounts", "a", "", "Comma-separated holding amounts matching --tickers")
	rootCmd.Flags().IntVar(&flagHorizon, "horizon", 0, "Forecast horizon in years (default from config)")
	rootCmd.Flags().StringVar(&flagChartDir, "chart-dir", "", "Write a PNG chart per ticker into this directory")
	rootCmd.Flags().BoolVar(&flagNoRecord, "no-record", false, "Do not store the run in SQLite")

	rootCmd.AddCommand(watchCmd, runsCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if cmd.Flags().Changed("horizon") {
		cfg.Horizon = flagHorizon
	}
	if flagChartDir != "" {
		cfg.Output.ChartDir = flagChartDir
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		return err
	}
	return cfg.Validate()
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	return nil
}

func newCollector(c *config.Config) *collector.Collector {
	var fetcher collector.Fetcher
	if c.DataSource.BaseURL != "" {
		fetcher = collector.NewVsTraderFetcher(c.DataSource.BaseURL, c.DataSource.APIKey, c.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(c.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source")
	return collector.NewCollector(fetcher, c.HistoryYears, c.DataSource.RatePerSecond, c.DataSource.Burst)
}

func openRecorder(path string) recorder.Recorder {
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func runForecast(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	hm, err := holdings.NewManager(cfg.Holdings.StateFile)
	if err != nil {
		log.Warn().Err(err).Msg("load holdings, continuing without saved amounts")
		hm = nil
	}

	reqs, err := collectRequests(out, huhPrompter{}, flagTickers, flagAmounts, hm)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Fprintln(out, "No tickers provided. Exiting.")
		return nil
	}
	if hm != nil {
		amounts := make(map[string]float64, len(reqs))
		for _, r := range reqs {
			amounts[r.Ticker] = r.Amount
		}
		if err := hm.Set(amounts); err != nil {
			log.Warn().Err(err).Msg("save holdings")
		}
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if !flagNoRecord {
		rec = openRecorder(cfg.Database.SQLitePath)
	}
	defer rec.Close()

	eng := engine.New(newCollector(cfg), cfg.Horizon, nil)
	_, err = execute(cmd.Context(), out, eng, reqs, rec, cfg.Output.ChartDir)
	return err
}

// execute runs the forecast, prints it, then records and charts it.
func execute(ctx context.Context, out io.Writer, eng *engine.Engine, reqs []engine.Request, rec recorder.Recorder, chartDir string) (*engine.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rep := eng.Run(ctx, reqs)

	if err := report.Print(out, rep); err != nil {
		return rep, fmt.Errorf("print report: %w", err)
	}

	run := recorder.NewRun(rep)
	if err := rec.RecordRun(run); err != nil {
		log.Error().Err(err).Msg("record forecast run")
	} else {
		log.Debug().Str("run", run.ID).Msg("run recorded")
	}

	if chartDir != "" {
		paths, err := chart.WriteCharts(chartDir, rep)
		if err != nil {
			log.Error().Err(err).Msg("write charts")
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Chart written: %s\n", p)
		}
	}

	if rep.HasInconsistency() {
		return rep, errInconsistent
	}
	return rep, nil
}
