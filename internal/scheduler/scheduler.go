package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultTickerSchedule polls the selected market's ticker every three seconds.
const DefaultTickerSchedule = "@every 3s"

// TickerRefresher refetches the ticker for the current selection.
type TickerRefresher interface {
	RefreshTicker()
}

// Scheduler drives the background refresh jobs.
type Scheduler struct {
	Cron      *cron.Cron
	Refresher TickerRefresher
}

// NewScheduler creates a new Scheduler. A tick that fires while the previous
// refresh is still running is skipped.
func NewScheduler(r TickerRefresher) *Scheduler {
	logger := log.With().Str("component", "scheduler").Logger()
	cl := cron.PrintfLogger(&logger)
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Refresher: r,
	}
}

// RegisterAll registers the ticker poll.
func (s *Scheduler) RegisterAll(schedule string) error {
	if schedule == "" {
		schedule = DefaultTickerSchedule
	}
	if _, err := s.Cron.AddFunc(schedule, s.Refresher.RefreshTicker); err != nil {
		return fmt.Errorf("register ticker poll %q: %w", schedule, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running refresh to return.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}
