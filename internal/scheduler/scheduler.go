// Package scheduler wires up the cron job that periodically triggers an
// incremental crawl run.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler wraps robfig/cron and manages the crawl loop.
type Scheduler struct {
	cron *cron.Cron
	run  func(context.Context)
	spec string // cron spec, e.g. "@every 6h"
	log  zerolog.Logger
}

// New creates a Scheduler that calls run every intervalHours hours.
func New(intervalHours int, run func(context.Context), log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		run:  run,
		spec: fmt.Sprintf("@every %dh", intervalHours),
		log:  log,
	}
}

// Start registers the job and starts the scheduler. Also runs one crawl
// immediately so the store is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("scheduler started")

	go s.run(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}
