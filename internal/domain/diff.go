package domain

// ChangeType classifies what happened to a point between two runs.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ChangeLabel is descriptive metadata on an update pair. It refines how far
// the current text drifted from the previous text and never affects the
// add/update/delete classification itself.
type ChangeLabel string

const (
	LabelUpdated  ChangeLabel = "updated"
	LabelModified ChangeLabel = "modified"
	LabelReplaced ChangeLabel = "replaced"
)

// ChangeDetails carries character-level counts for one update pair.
type ChangeDetails struct {
	Label     ChangeLabel `json:"label"`
	Additions int         `json:"additions"`
	Deletions int         `json:"deletions"`
	Unchanged int         `json:"unchanged"`
}

// UpdatePair is a previous/current point pair reconciled as one update.
type UpdatePair struct {
	Previous        Point         `json:"previous"`
	Current         Point         `json:"current"`
	SimilarityScore float64       `json:"similarity_score"`
	ChangeDetails   ChangeDetails `json:"change_details"`
}

// DiffStats summarizes one comparison.
type DiffStats struct {
	Unchanged int `json:"unchanged"`
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
}

// DiffResult is the output of comparing a previous point-set to a current
// one.
type DiffResult struct {
	Added   []Point      `json:"added"`
	Updated []UpdatePair `json:"updated"`
	Deleted []Point      `json:"deleted"`
	Stats   DiffStats    `json:"stats"`
}

// HasChanges reports whether the diff produced anything worth posting.
func (d DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Updated) > 0 || len(d.Deleted) > 0
}
