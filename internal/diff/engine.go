// Package diff classifies every point of a project section as unchanged,
// added, deleted, or updated between two runs.
package diff

import (
	"log/slog"
	"strings"

	"brainlift_tracker/internal/domain"
	"brainlift_tracker/internal/outline"
)

const (
	// reconcileThreshold decides whether a deletion/addition pair is really
	// one point that changed. Strictly greater wins: a score of exactly 0.5
	// leaves both points in their pools.
	reconcileThreshold = 0.5

	// Label thresholds, metadata only.
	updatedThreshold  = 0.7
	replacedThreshold = 0.3
)

// Options tunes the engine.
type Options struct {
	// MaxReconcileProduct caps the quadratic reconciliation pass: when
	// |deleted| * |added| exceeds it, pairing is skipped and changes land as
	// pure adds/deletes. Zero means unlimited.
	MaxReconcileProduct int
}

// DefaultOptions matches production sizing for typical outlines.
func DefaultOptions() Options {
	return Options{MaxReconcileProduct: 250_000}
}

// Engine compares point-sets by content signature, reconciling near-equal
// deletion/addition pairs into updates.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		opts:   opts,
		logger: logger.With("component", "diff"),
	}
}

// Diff compares a previous point-set to a current one. Order is irrelevant
// for equality: matching is by content signature, then by similarity for the
// leftovers. An empty previous set means everything is added.
func (e *Engine) Diff(previous, current []domain.Point) domain.DiffResult {
	prevBySig := signatureMap(previous)
	currBySig := signatureMap(current)

	result := domain.DiffResult{
		Added:   []domain.Point{},
		Updated: []domain.UpdatePair{},
		Deleted: []domain.Point{},
	}

	var candidateDeletes []domain.Point
	for _, p := range previous {
		sig := pointSignature(p)
		if _, ok := currBySig[sig]; ok {
			continue
		}
		candidateDeletes = append(candidateDeletes, p)
	}

	var candidateAdds []domain.Point
	for _, p := range current {
		sig := pointSignature(p)
		if _, ok := prevBySig[sig]; ok {
			result.Stats.Unchanged++
			continue
		}
		candidateAdds = append(candidateAdds, p)
	}

	deletes, adds, updates := e.reconcile(candidateDeletes, candidateAdds)

	result.Deleted = deletes
	result.Added = adds
	result.Updated = updates
	result.Stats.Added = len(adds)
	result.Stats.Deleted = len(deletes)
	result.Stats.Updated = len(updates)
	return result
}

// reconcile pairs candidate deletions with candidate additions. For every
// deletion it greedily picks the best-scoring unconsumed addition, first-seen
// order breaking ties; a pair whose score exceeds the threshold becomes an
// update, removing both points from their pools. Greedy, not globally
// optimal.
func (e *Engine) reconcile(deletes, adds []domain.Point) ([]domain.Point, []domain.Point, []domain.UpdatePair) {
	updates := []domain.UpdatePair{}
	if len(deletes) == 0 || len(adds) == 0 {
		return orEmpty(deletes), orEmpty(adds), updates
	}

	if e.opts.MaxReconcileProduct > 0 && len(deletes)*len(adds) > e.opts.MaxReconcileProduct {
		e.logger.Warn("changeset too large for similarity pairing, keeping raw adds and deletes",
			"deleted", len(deletes),
			"added", len(adds),
			"cap", e.opts.MaxReconcileProduct,
		)
		return deletes, adds, updates
	}

	consumed := make([]bool, len(adds))
	var remainingDeletes []domain.Point

	for _, del := range deletes {
		bestIdx := -1
		bestScore := 0.0
		delText := combinedText(del)

		for i, add := range adds {
			if consumed[i] {
				continue
			}
			score := outline.Similarity(delText, combinedText(add))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		if bestIdx >= 0 && bestScore > reconcileThreshold {
			consumed[bestIdx] = true
			updates = append(updates, makeUpdatePair(del, adds[bestIdx], bestScore))
			continue
		}
		remainingDeletes = append(remainingDeletes, del)
	}

	var remainingAdds []domain.Point
	for i, add := range adds {
		if !consumed[i] {
			remainingAdds = append(remainingAdds, add)
		}
	}
	return orEmpty(remainingDeletes), orEmpty(remainingAdds), updates
}

func makeUpdatePair(previous, current domain.Point, score float64) domain.UpdatePair {
	additions, deletions, unchanged := outline.DiffCounts(combinedText(previous), combinedText(current))
	return domain.UpdatePair{
		Previous:        previous,
		Current:         current,
		SimilarityScore: score,
		ChangeDetails: domain.ChangeDetails{
			Label:     classifyLabel(score),
			Additions: additions,
			Deletions: deletions,
			Unchanged: unchanged,
		},
	}
}

// classifyLabel grades how far an update drifted. Descriptive only.
func classifyLabel(score float64) domain.ChangeLabel {
	switch {
	case score >= updatedThreshold:
		return domain.LabelUpdated
	case score < replacedThreshold:
		return domain.LabelReplaced
	default:
		return domain.LabelModified
	}
}

// combinedText flattens a point into one comparison string.
func combinedText(p domain.Point) string {
	parts := make([]string, 0, len(p.SubPoints)+1)
	parts = append(parts, p.MainContent)
	parts = append(parts, p.SubPoints...)
	return outline.Normalize(strings.Join(parts, " "))
}

func signatureMap(points []domain.Point) map[string]domain.Point {
	m := make(map[string]domain.Point, len(points))
	for _, p := range points {
		m[pointSignature(p)] = p
	}
	return m
}

// pointSignature prefers the signature computed at parse time, recomputing
// only when a caller hands in a bare point.
func pointSignature(p domain.Point) string {
	if p.ContentSignature != "" {
		return p.ContentSignature
	}
	return outline.Signature(p)
}

func orEmpty(points []domain.Point) []domain.Point {
	if points == nil {
		return []domain.Point{}
	}
	return points
}
