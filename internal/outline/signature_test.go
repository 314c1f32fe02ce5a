package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"brainlift_tracker/internal/domain"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("  Hello   World  "))
	assert.Equal(t, "a & b", Normalize("A &amp; B"))
	assert.Equal(t, "tabs and newlines", Normalize("Tabs\tand\nnewlines"))
	assert.Equal(t, "", Normalize("   "))
}

func TestSignature_StableAcrossFormatting(t *testing.T) {
	a := domain.Point{MainContent: "The Main  Idea", SubPoints: []string{"First Sub"}}
	b := domain.Point{MainContent: "the main idea", SubPoints: []string{"first   sub"}}

	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_PositionIndependent(t *testing.T) {
	a := domain.Point{MainContent: "Same content", PointNumber: 1}
	b := domain.Point{MainContent: "Same content", PointNumber: 7}

	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_SubPointOrderMatters(t *testing.T) {
	a := domain.Point{MainContent: "Main", SubPoints: []string{"one", "two"}}
	b := domain.Point{MainContent: "Main", SubPoints: []string{"two", "one"}}

	assert.NotEqual(t, Signature(a), Signature(b))
}

func TestSignature_SubPointsChangeKey(t *testing.T) {
	a := domain.Point{MainContent: "Main"}
	b := domain.Point{MainContent: "Main", SubPoints: []string{"extra"}}

	assert.NotEqual(t, Signature(a), Signature(b))
}

func TestSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("exact same text", "exact same text"))
}

func TestSimilarity_Disjoint(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("aaaa", "bbbb"))
}

func TestSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("something", ""))
	assert.Equal(t, 0.0, Similarity("", "something"))
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"The quick brown fox jumps", "The quick brown fox leaps"},
		{"short", "a much longer and different string"},
		{"", "x"},
		{"abc", "abc"},
		{"one two three", "three two one"},
	}
	for _, pair := range pairs {
		assert.Equal(t, Similarity(pair[0], pair[1]), Similarity(pair[1], pair[0]),
			"similarity must be symmetric for %q / %q", pair[0], pair[1])
	}
}

func TestSimilarity_CloseTexts(t *testing.T) {
	score := Similarity("The quick brown fox jumps", "The quick brown fox leaps")
	assert.Greater(t, score, 0.5)
	assert.Less(t, score, 1.0)
}

func TestSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"abcdef", "abXdef"},
		{"completely unrelated", "nothing in common here at all"},
		{"a", "ab"},
	}
	for _, pair := range pairs {
		score := Similarity(pair[0], pair[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestDiffCounts(t *testing.T) {
	additions, deletions, unchanged := DiffCounts("abcdef", "abcxyz")
	assert.Equal(t, 3, unchanged)
	assert.Equal(t, 3, deletions)
	assert.Equal(t, 3, additions)

	additions, deletions, unchanged = DiffCounts("same", "same")
	assert.Equal(t, 4, unchanged)
	assert.Equal(t, 0, deletions)
	assert.Equal(t, 0, additions)
}
