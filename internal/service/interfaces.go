package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"brainlift_tracker/internal/domain"
)

// ContentSource authenticates against the outline backend and downloads node
// trees for shared documents.
type ContentSource interface {
	Authenticate(ctx context.Context) (string, error)
	FetchTree(ctx context.Context, session, shareID string) ([]domain.Node, error)
	ResolveAuxShareID(ctx context.Context, session, rootShareID string) (string, error)
}

// SectionLocator resolves a semantic section label to outline node ids.
// Absence of a match is locator.ErrNoMatch, not a failure.
type SectionLocator interface {
	Locate(ctx context.Context, label string, candidates []domain.Node) ([]string, error)
}

// StateStore persists per-project point-set state. Get returns
// domain.ErrStateNotFound for a project with no stored state (first run).
type StateStore interface {
	Get(ctx context.Context, projectID string) (*domain.ProjectState, error)
	Put(ctx context.Context, state *domain.ProjectState, ttl time.Duration) error
}

// SnapshotStore keeps immutable timestamped payload snapshots per project.
type SnapshotStore interface {
	Put(ctx context.Context, projectID, kind string, ts time.Time, payload []byte) error
	Latest(ctx context.Context, projectID, kind string) ([]byte, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int, error)
}

// Poster drives composed items through the posting API, mutating their
// statuses in place.
type Poster interface {
	Post(ctx context.Context, items []domain.ComposedItem, accountID string) []domain.ComposedItem
}

// ProjectRegistry is the read-only view of tracked projects.
type ProjectRegistry interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	AllActive(ctx context.Context) ([]domain.Project, error)
	AccountID(ctx context.Context, projectID string) (string, error)
}

// EventPublisher emits per-project run results for downstream consumers.
// Optional; a nil publisher disables emission.
type EventPublisher interface {
	PublishDiff(ctx context.Context, projectID string, result domain.ProjectResult) error
	Close() error
}
