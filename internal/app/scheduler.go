/**
 * @description
 * Cron scheduler wiring for the collections run.
 */
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/recoup/collections-service/internal/config"
)

// Scheduler manages the cron trigger for collections runs.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(engine *Engine, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		engine: engine,
		logger: logger,
		config: cfg,
	}
}

// Start registers the collections run and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.CollectionsRunSchedule, s.runCollections); err != nil {
		s.logger.Error("failed to schedule collections run", "error", err)
	} else {
		s.logger.Info("scheduled collections run", "schedule", s.config.CollectionsRunSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runCollections() {
	ctx := context.Background()

	if _, err := s.engine.Run(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Info("skipping scheduled collections run, previous run still in progress")
			return
		}
		s.logger.Error("collections run failed", "error", err)
	}
}
