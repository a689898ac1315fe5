package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"AssetForecast/internal/config"
	"AssetForecast/internal/engine"
	"AssetForecast/internal/holdings"
	"AssetForecast/internal/notifier"
	"AssetForecast/internal/recorder"
)

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the watchlist forecast on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Engine    *engine.Engine
	Holdings  *holdings.Manager
	Recorder  recorder.Recorder
	Notifier  Sender
	Watchlist []config.Ticker
	Ctx       context.Context

	// runMu keeps a manual /forecast from overlapping a cron run.
	runMu sync.Mutex
}

// NewScheduler creates a new Scheduler. Notifier may be nil.
func NewScheduler(ctx context.Context, eng *engine.Engine, hm *holdings.Manager, rec recorder.Recorder, n Sender, watchlist []config.Ticker) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Engine:    eng,
		Holdings:  hm,
		Recorder:  rec,
		Notifier:  n,
		Watchlist: watchlist,
		Ctx:       ctx,
	}
}

// RegisterAll registers the forecast task.
func (s *Scheduler) RegisterAll(forecastCron string) error {
	if _, err := s.Cron.AddFunc(forecastCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register forecast task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tickers", len(s.Watchlist)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Requests builds the watchlist requests. A configured amount wins over the
// saved holding.
func (s *Scheduler) Requests() []engine.Request {
	tickers := make([]string, len(s.Watchlist))
	amounts := make([]string, len(s.Watchlist))
	for i, t := range s.Watchlist {
		tickers[i] = t.Symbol
		if t.Amount != 0 {
			amounts[i] = fmt.Sprint(t.Amount)
		}
	}
	var lookup func(string) (float64, bool)
	if s.Holdings != nil {
		lookup = s.Holdings.Amount
	}
	reqs, invalid := engine.BuildRequests(tickers, amounts, lookup)
	for _, t := range invalid {
		log.Warn().Str("ticker", t).Msg("invalid watchlist amount, using 1")
	}
	return reqs
}

// RunNow executes the forecast task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() *engine.Report {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	log.Info().Msg("running forecast task")
	rep := s.Engine.Run(s.Ctx, s.Requests())

	if err := s.Recorder.RecordRun(recorder.NewRun(rep)); err != nil {
		log.Error().Err(err).Msg("record forecast run")
	}
	s.trySend(notifier.FormatForecastSummary(rep))
	return rep
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/forecast":
		s.RunNow()
		return ""
	case "/holdings":
		if s.Holdings == nil {
			return notifier.FormatHoldings(nil)
		}
		return notifier.FormatHoldings(s.Holdings.List())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
