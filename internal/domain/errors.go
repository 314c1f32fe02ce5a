package domain

import "errors"

// ErrStateNotFound signals that no state is stored for a project, i.e. the
// project is on its first run. Distinct from a storage failure.
var ErrStateNotFound = errors.New("project state not found")

// ErrProjectNotFound signals an unknown project id in the registry.
var ErrProjectNotFound = errors.New("project not found")

// ErrSnapshotNotFound signals that no snapshot of the requested kind exists.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot kinds accepted by the blob store.
const (
	SnapshotKindScraped = "scraped"
	SnapshotKindTweets  = "tweets"
)
