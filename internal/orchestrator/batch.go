// Package orchestrator fans tracked projects out across bounded concurrent
// batches, isolating per-project failure and pacing batches to protect the
// downstream services.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"brainlift_tracker/internal/domain"
	"brainlift_tracker/internal/service"
)

// Runner executes one project's pipeline. Implementations never return an
// error; failures are carried inside the result.
type Runner interface {
	Run(ctx context.Context, project domain.Project) domain.ProjectResult
}

// Config tunes batch execution.
type Config struct {
	BatchSize           int
	DelayBetweenBatches time.Duration
	SnapshotRetention   time.Duration
}

// Orchestrator runs all active projects in fixed-size concurrent batches.
type Orchestrator struct {
	runner    Runner
	registry  service.ProjectRegistry
	snapshots service.SnapshotStore
	logger    *slog.Logger
	cfg       Config
}

func New(runner Runner, registry service.ProjectRegistry, snapshots service.SnapshotStore, logger *slog.Logger, cfg Config) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &Orchestrator{
		runner:    runner,
		registry:  registry,
		snapshots: snapshots,
		logger:    logger.With("component", "orchestrator"),
		cfg:       cfg,
	}
}

// RunCycle loads all active projects, runs them, then prunes expired scraped
// snapshots. This is the unit the scheduler fires.
func (o *Orchestrator) RunCycle(ctx context.Context) (*domain.BatchSummary, error) {
	projects, err := o.registry.AllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active projects: %w", err)
	}

	summary := o.Run(ctx, projects)

	if o.snapshots != nil && o.cfg.SnapshotRetention > 0 {
		if _, err := o.snapshots.Cleanup(ctx, o.cfg.SnapshotRetention); err != nil {
			o.logger.Warn("snapshot cleanup failed", "error", err)
		}
	}
	return summary, nil
}

// Run partitions projects into fixed-size batches, executes every project of
// a batch concurrently, waits for all of them, then sleeps before the next
// batch. A failing project never affects its siblings.
func (o *Orchestrator) Run(ctx context.Context, projects []domain.Project) *domain.BatchSummary {
	start := time.Now()
	summary := &domain.BatchSummary{}

	batches := partition(projects, o.cfg.BatchSize)
	o.logger.Info("starting batch run",
		"projects", len(projects),
		"batches", len(batches),
		"batch_size", o.cfg.BatchSize,
	)

	for i, batch := range batches {
		results := o.runBatch(ctx, batch)
		for _, r := range results {
			summary.Add(r)
		}

		if i < len(batches)-1 && o.cfg.DelayBetweenBatches > 0 {
			select {
			case <-ctx.Done():
				o.logger.Warn("batch run cancelled", "completed_batches", i+1)
				summary.Duration = time.Since(start)
				return summary
			case <-time.After(o.cfg.DelayBetweenBatches):
			}
		}
	}

	summary.Duration = time.Since(start)
	o.logger.Info("batch run completed",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"partial", summary.Partial,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)
	return summary
}

func (o *Orchestrator) runBatch(ctx context.Context, batch []domain.Project) []domain.ProjectResult {
	results := make([]domain.ProjectResult, len(batch))
	var wg sync.WaitGroup

	for i, project := range batch {
		wg.Add(1)
		go func(i int, project domain.Project) {
			defer wg.Done()
			results[i] = o.runProject(ctx, project)
		}(i, project)
	}
	wg.Wait()
	return results
}

// runProject shields the batch from anything a single project run does,
// including panics, converting them into error results.
func (o *Orchestrator) runProject(ctx context.Context, project domain.Project) (result domain.ProjectResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("project run panicked", "project_id", project.ProjectID, "panic", r)
			result = domain.ProjectResult{
				ProjectID: project.ProjectID,
				Status:    domain.RunError,
				Error:     fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	if !project.Active {
		return domain.ProjectResult{
			ProjectID: project.ProjectID,
			Status:    domain.RunSkipped,
		}
	}
	return o.runner.Run(ctx, project)
}

func partition(projects []domain.Project, size int) [][]domain.Project {
	var batches [][]domain.Project
	for start := 0; start < len(projects); start += size {
		end := start + size
		if end > len(projects) {
			end = len(projects)
		}
		batches = append(batches, projects[start:end])
	}
	return batches
}
