package scheduler

import (
	"context"
	"log/slog"
	"time"

	"brainlift_tracker/internal/domain"
)

// BatchRunner defines the interface for one full tracking cycle.
type BatchRunner interface {
	RunCycle(ctx context.Context) (*domain.BatchSummary, error)
}

type Scheduler struct {
	runner       BatchRunner
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger
}

func NewScheduler(runner BatchRunner, interval, cycleTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:       runner,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	if _, err := s.runner.RunCycle(cycleCtx); err != nil {
		s.logger.Error("tracking cycle failed", "error", err)
	}
}
