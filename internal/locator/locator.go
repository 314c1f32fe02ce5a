package locator

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"brainlift_tracker/internal/domain"
	"brainlift_tracker/internal/outline"
)

// ErrNoMatch is returned when neither the classifier nor the fallback
// matcher can bind a section label to any candidate node. Callers treat it
// as "section not found", not as a failure.
var ErrNoMatch = errors.New("no matching node")

// Classifier answers which candidate node(s) a semantic label refers to.
// The answer is a single node id, or comma-joined ids for multi-match
// queries; an empty answer means "no answer".
type Classifier interface {
	Classify(ctx context.Context, label string, candidates []domain.Node) (string, error)
}

// synonyms maps canonical section labels to substrings that identify them in
// outline node names.
var synonyms = map[string][]string{
	"dok4": {"spiky pov", "spiky povs", "spov", "dok4", "dok 4"},
	"dok3": {"insights", "insight", "dok3", "dok 3"},
}

// Locator resolves a section label to outline node ids, trying an external
// classifier first and degrading silently to a deterministic matcher.
type Locator struct {
	classifier Classifier
	logger     *slog.Logger
}

func New(classifier Classifier, logger *slog.Logger) *Locator {
	return &Locator{
		classifier: classifier,
		logger:     logger.With("component", "locator"),
	}
}

// Locate returns the ids of candidate nodes matching the label. Classifier
// failure or garbage is never fatal; absence of any match yields ErrNoMatch.
func (l *Locator) Locate(ctx context.Context, label string, candidates []domain.Node) ([]string, error) {
	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}

	if l.classifier != nil {
		ids, ok := l.classify(ctx, label, candidates)
		if ok {
			return ids, nil
		}
	}

	if ids := FallbackMatch(label, candidates); len(ids) > 0 {
		return ids, nil
	}
	return nil, ErrNoMatch
}

func (l *Locator) classify(ctx context.Context, label string, candidates []domain.Node) ([]string, bool) {
	answer, err := l.classifier.Classify(ctx, label, candidates)
	if err != nil {
		l.logger.Debug("classifier failed, using fallback matcher", "label", label, "error", err)
		return nil, false
	}
	answer = strings.TrimSpace(answer)
	if answer == "" || suspicious(answer) {
		return nil, false
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}

	var ids []string
	for _, part := range strings.Split(answer, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		// Any id outside the candidate set invalidates the whole answer.
		if !known[id] {
			l.logger.Debug("classifier returned unknown id, using fallback matcher",
				"label", label, "id", id)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, len(ids) > 0
}

// suspicious reports whether a classifier answer looks like code or prose
// rather than node ids. Such answers are rejected outright.
func suspicious(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, token := range []string{"```", "def ", "return ", "import ", "function", "{", "}", "<", ">"} {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return strings.Contains(answer, "\n")
}

// FallbackMatch is the deterministic three-pass matcher: exact
// case-insensitive name equality after markup stripping, then synonym-table
// substring matching, then raw substring containment.
func FallbackMatch(label string, candidates []domain.Node) []string {
	target := strings.ToLower(strings.TrimSpace(label))

	for _, c := range candidates {
		if strings.ToLower(outline.StripMarkup(c.Name)) == target {
			return []string{c.ID}
		}
	}

	var ids []string
	for _, syn := range synonyms[target] {
		for _, c := range candidates {
			name := strings.ToLower(outline.StripMarkup(c.Name))
			if strings.Contains(name, syn) && !contains(ids, c.ID) {
				ids = append(ids, c.ID)
			}
		}
	}
	if len(ids) > 0 {
		return ids
	}

	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), target) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
