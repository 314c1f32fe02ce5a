// Package compose turns a diff result into ordered, length-bounded post
// chunks grouped into threads.
package compose

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"brainlift_tracker/internal/domain"
)

// DefaultCharBudget is the raw-content budget per chunk, leaving headroom
// for platform metadata below the hard tweet limit.
const DefaultCharBudget = 230

// Composer splits diff entries into tweet-sized chunks. Chunks from the same
// point share a thread id and are numbered part/total; a single chunk is a
// standalone post.
type Composer struct {
	charBudget int
}

func New(charBudget int) *Composer {
	if charBudget <= 0 {
		charBudget = DefaultCharBudget
	}
	return &Composer{charBudget: charBudget}
}

// Compose converts one diff result for one section into composed items in
// posting order. With firstRun set, every current point is composed as an
// addition and deletions are ignored, regardless of how the diff classified
// them.
func (c *Composer) Compose(d domain.DiffResult, section domain.Section, firstRun bool) []domain.ComposedItem {
	var items []domain.ComposedItem

	if firstRun {
		for _, p := range d.Added {
			items = append(items, c.composePoint(p, section, domain.ChangeAdded, nil)...)
		}
		for _, pair := range d.Updated {
			items = append(items, c.composePoint(pair.Current, section, domain.ChangeAdded, nil)...)
		}
		return items
	}

	for _, p := range d.Added {
		items = append(items, c.composePoint(p, section, domain.ChangeAdded, nil)...)
	}
	for _, pair := range d.Updated {
		score := pair.SimilarityScore
		items = append(items, c.composePoint(pair.Current, section, domain.ChangeUpdated, &score)...)
	}
	for _, p := range d.Deleted {
		items = append(items, c.composePoint(p, section, domain.ChangeDeleted, nil)...)
	}
	return items
}

func (c *Composer) composePoint(p domain.Point, section domain.Section, change domain.ChangeType, similarity *float64) []domain.ComposedItem {
	combined := CombinedText(p)
	if combined == "" {
		return nil
	}

	chunks := c.split(combined)
	threadID := ulid.Make().String()
	now := time.Now().UTC()

	items := make([]domain.ComposedItem, 0, len(chunks))
	for i, chunk := range chunks {
		items = append(items, domain.ComposedItem{
			ID:               ulid.Make().String(),
			Section:          section,
			ChangeType:       change,
			ContentRaw:       chunk,
			ContentFormatted: format(chunk, change, similarity, i+1, len(chunks)),
			ThreadID:         threadID,
			ThreadPart:       i + 1,
			TotalThreadParts: len(chunks),
			Status:           domain.StatusPending,
			SimilarityScore:  similarity,
			CreatedAt:        now,
		})
	}
	return items
}

// CombinedText flattens a point into the text that gets posted: main content
// and sub-points joined by single spaces, whitespace collapsed.
func CombinedText(p domain.Point) string {
	parts := make([]string, 0, len(p.SubPoints)+1)
	if main := strings.TrimSpace(p.MainContent); main != "" {
		parts = append(parts, main)
	}
	for _, sub := range p.SubPoints {
		if sub = strings.TrimSpace(sub); sub != "" {
			parts = append(parts, sub)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// split cuts text into chunks within the character budget, preferring
// sentence boundaries and falling back to word boundaries when one sentence
// overflows on its own. Joining the chunks with single spaces reproduces the
// input, except across the cuts inside a single token longer than the budget.
func (c *Composer) split(text string) []string {
	if len(text) <= c.charBudget {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	appendUnit := func(unit string) {
		if current.Len() > 0 && current.Len()+1+len(unit) > c.charBudget {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(unit)
	}

	for _, sentence := range splitSentences(text) {
		if len(sentence) <= c.charBudget {
			appendUnit(sentence)
			continue
		}
		for _, word := range strings.Fields(sentence) {
			if len(word) <= c.charBudget {
				appendUnit(word)
				continue
			}
			// Pathological single token longer than the budget. Cuts back
			// up to a rune start so no multibyte rune is split.
			for len(word) > c.charBudget {
				cut := c.charBudget
				for cut > 0 && !utf8.RuneStart(word[cut]) {
					cut--
				}
				if cut == 0 {
					cut = c.charBudget
				}
				appendUnit(word[:cut])
				flush()
				word = word[cut:]
			}
			if word != "" {
				appendUnit(word)
			}
		}
	}
	flush()
	return chunks
}

// splitSentences breaks text on terminal punctuation followed by a space,
// keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' {
				sentences = append(sentences, text[start:i+1])
				start = i + 2
				i++
			}
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// format renders the outward-facing text: the first chunk carries a
// change-type marker, continuation chunks carry their thread position only.
func format(chunk string, change domain.ChangeType, similarity *float64, part, total int) string {
	if part > 1 {
		return fmt.Sprintf("%s (%d/%d)", chunk, part, total)
	}
	marker := ""
	switch change {
	case domain.ChangeAdded:
		marker = "[ADDED] "
	case domain.ChangeUpdated:
		if similarity != nil {
			marker = fmt.Sprintf("[UPDATED (%.0f%% similar)] ", *similarity*100)
		} else {
			marker = "[UPDATED] "
		}
	case domain.ChangeDeleted:
		marker = "[DELETED] "
	}
	return marker + chunk
}
