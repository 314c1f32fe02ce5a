package domain

import "time"

// RunStatus is the outcome of one project's run within a batch.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunError   RunStatus = "error"
	RunSkipped RunStatus = "skipped"
)

// ProjectResult is the structured outcome of a single project run. Failures
// are captured here instead of aborting the batch.
type ProjectResult struct {
	ProjectID string        `json:"project_id"`
	Status    RunStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	FirstRun  bool          `json:"first_run"`
	Posted    int           `json:"posted"`
	Failed    int           `json:"failed"`
	Stats     *DiffStats    `json:"stats,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// BatchSummary aggregates one orchestrator cycle.
type BatchSummary struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Partial   int             `json:"partial"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Duration  time.Duration   `json:"duration"`
	Results   []ProjectResult `json:"results"`
}

// Add folds one project result into the summary counters.
func (b *BatchSummary) Add(r ProjectResult) {
	b.Total++
	b.Results = append(b.Results, r)
	switch r.Status {
	case RunSuccess:
		b.Succeeded++
	case RunPartial:
		b.Partial++
	case RunSkipped:
		b.Skipped++
	default:
		b.Failed++
	}
}
