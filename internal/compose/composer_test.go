package compose

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainlift_tracker/internal/domain"
)

func diffWithAdded(points ...domain.Point) domain.DiffResult {
	return domain.DiffResult{Added: points}
}

func TestCompose_SingleShortPoint(t *testing.T) {
	c := New(DefaultCharBudget)
	d := diffWithAdded(domain.Point{MainContent: "A short insight", SubPoints: []string{"with one sub"}})

	items := c.Compose(d, domain.SectionDOK3, false)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "A short insight with one sub", item.ContentRaw)
	assert.Equal(t, "[ADDED] A short insight with one sub", item.ContentFormatted)
	assert.Equal(t, domain.ChangeAdded, item.ChangeType)
	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Equal(t, 1, item.ThreadPart)
	assert.Equal(t, 1, item.TotalThreadParts)
	assert.NotEmpty(t, item.ID)
	assert.NotEmpty(t, item.ThreadID)
}

func TestCompose_ScenarioD_LongPointSplitsIntoThread(t *testing.T) {
	c := New(230)
	sentence := "This is a deliberately verbose sentence about the architecture of the system that keeps going. "
	long := strings.TrimSpace(strings.Repeat(sentence, 7)) // ~600+ chars

	d := diffWithAdded(domain.Point{MainContent: long})
	items := c.Compose(d, domain.SectionDOK4, false)

	require.Greater(t, len(items), 1)

	threadID := items[0].ThreadID
	for i, item := range items {
		assert.LessOrEqual(t, len(item.ContentRaw), 230, "chunk %d exceeds budget", i)
		assert.Equal(t, threadID, item.ThreadID)
		assert.Equal(t, i+1, item.ThreadPart)
		assert.Equal(t, len(items), item.TotalThreadParts)
	}

	assert.True(t, strings.HasPrefix(items[0].ContentFormatted, "[ADDED] "))
	for _, item := range items[1:] {
		assert.False(t, strings.HasPrefix(item.ContentFormatted, "[ADDED]"))
		assert.Contains(t, item.ContentFormatted, "/")
	}
}

func TestCompose_RoundTrip(t *testing.T) {
	c := New(230)
	sentence := "Observations accumulate over time and the diff engine notices every drift in the outline. "
	long := strings.TrimSpace(strings.Repeat(sentence, 8))

	d := diffWithAdded(domain.Point{MainContent: long})
	items := c.Compose(d, domain.SectionDOK3, false)
	require.Greater(t, len(items), 1)

	var chunks []string
	for _, item := range items {
		chunks = append(chunks, item.ContentRaw)
	}
	assert.Equal(t, long, strings.Join(chunks, " "))
}

func TestCompose_WordBoundaryFallback(t *testing.T) {
	c := New(50)
	// One sentence far beyond the budget with no terminal punctuation.
	long := strings.TrimSpace(strings.Repeat("word ", 40))

	d := diffWithAdded(domain.Point{MainContent: long})
	items := c.Compose(d, domain.SectionDOK3, false)

	require.Greater(t, len(items), 1)
	var chunks []string
	for _, item := range items {
		assert.LessOrEqual(t, len(item.ContentRaw), 50)
		chunks = append(chunks, item.ContentRaw)
	}
	assert.Equal(t, long, strings.Join(chunks, " "))
}

func TestCompose_OversizedTokenSplitsOnRuneBoundaries(t *testing.T) {
	c := New(10)
	// A single token past the budget whose multibyte runes straddle the
	// byte offset a naive cut would use.
	long := "a" + strings.Repeat("é", 12)

	d := diffWithAdded(domain.Point{MainContent: long})
	items := c.Compose(d, domain.SectionDOK3, false)
	require.Greater(t, len(items), 1)

	var chunks []string
	for i, item := range items {
		assert.True(t, utf8.ValidString(item.ContentRaw), "chunk %d is not valid UTF-8: %q", i, item.ContentRaw)
		assert.LessOrEqual(t, len(item.ContentRaw), 10, "chunk %d exceeds budget", i)
		chunks = append(chunks, item.ContentRaw)
	}
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestCompose_UpdatedCarriesSimilarityMarker(t *testing.T) {
	c := New(DefaultCharBudget)
	score := 0.87
	d := domain.DiffResult{
		Updated: []domain.UpdatePair{{
			Previous:        domain.Point{MainContent: "Old text"},
			Current:         domain.Point{MainContent: "New text"},
			SimilarityScore: score,
		}},
	}

	items := c.Compose(d, domain.SectionDOK4, false)

	require.Len(t, items, 1)
	assert.Equal(t, domain.ChangeUpdated, items[0].ChangeType)
	assert.True(t, strings.HasPrefix(items[0].ContentFormatted, "[UPDATED (87% similar)] "), items[0].ContentFormatted)
	require.NotNil(t, items[0].SimilarityScore)
	assert.Equal(t, score, *items[0].SimilarityScore)
}

func TestCompose_DeletedMarker(t *testing.T) {
	c := New(DefaultCharBudget)
	d := domain.DiffResult{Deleted: []domain.Point{{MainContent: "Removed thought"}}}

	items := c.Compose(d, domain.SectionDOK3, false)

	require.Len(t, items, 1)
	assert.Equal(t, domain.ChangeDeleted, items[0].ChangeType)
	assert.Equal(t, "[DELETED] Removed thought", items[0].ContentFormatted)
}

func TestCompose_FirstRunOnlyAdded(t *testing.T) {
	c := New(DefaultCharBudget)
	d := domain.DiffResult{
		Added: []domain.Point{{MainContent: "Fresh point"}},
		Updated: []domain.UpdatePair{{
			Previous:        domain.Point{MainContent: "Was"},
			Current:         domain.Point{MainContent: "Is"},
			SimilarityScore: 0.6,
		}},
		Deleted: []domain.Point{{MainContent: "Should not appear"}},
	}

	items := c.Compose(d, domain.SectionDOK3, true)

	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, domain.ChangeAdded, item.ChangeType)
		assert.Nil(t, item.SimilarityScore)
	}
	assert.Equal(t, "Fresh point", items[0].ContentRaw)
	assert.Equal(t, "Is", items[1].ContentRaw)
}

func TestCompose_OrderAddedUpdatedDeleted(t *testing.T) {
	c := New(DefaultCharBudget)
	d := domain.DiffResult{
		Added:   []domain.Point{{MainContent: "Added one"}},
		Updated: []domain.UpdatePair{{Current: domain.Point{MainContent: "Updated one"}, SimilarityScore: 0.8}},
		Deleted: []domain.Point{{MainContent: "Deleted one"}},
	}

	items := c.Compose(d, domain.SectionDOK3, false)

	require.Len(t, items, 3)
	assert.Equal(t, domain.ChangeAdded, items[0].ChangeType)
	assert.Equal(t, domain.ChangeUpdated, items[1].ChangeType)
	assert.Equal(t, domain.ChangeDeleted, items[2].ChangeType)
}

func TestCompose_EmptyPointSkipped(t *testing.T) {
	c := New(DefaultCharBudget)
	d := diffWithAdded(domain.Point{MainContent: "   "})

	items := c.Compose(d, domain.SectionDOK3, false)
	assert.Empty(t, items)
}

func TestCombinedText(t *testing.T) {
	p := domain.Point{
		MainContent: "  Main   line ",
		SubPoints:   []string{"first  sub", " second sub "},
	}
	assert.Equal(t, "Main line first sub second sub", CombinedText(p))
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One sentence. Two! Three? Four")
	assert.Equal(t, []string{"One sentence.", "Two!", "Three?", "Four"}, sentences)
}
