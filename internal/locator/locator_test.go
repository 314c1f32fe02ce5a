package locator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainlift_tracker/internal/domain"
)

type stubClassifier struct {
	answer string
	err    error
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, label string, candidates []domain.Node) (string, error) {
	s.calls++
	return s.answer, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func nodes() []domain.Node {
	return []domain.Node{
		{ID: "n1", Name: "Purpose"},
		{ID: "n2", Name: "**Spiky POVs**"},
		{ID: "n3", Name: "DOK3 - Insights"},
		{ID: "n4", Name: "Experts"},
	}
}

func TestLocate_ClassifierAnswerWins(t *testing.T) {
	c := &stubClassifier{answer: "n2"}
	l := New(c, testLogger())

	ids, err := l.Locate(context.Background(), "dok4", nodes())

	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, ids)
	assert.Equal(t, 1, c.calls)
}

func TestLocate_ClassifierCommaJoinedAnswer(t *testing.T) {
	c := &stubClassifier{answer: "n2, n3"}
	l := New(c, testLogger())

	ids, err := l.Locate(context.Background(), "dok4", nodes())

	require.NoError(t, err)
	assert.Equal(t, []string{"n2", "n3"}, ids)
}

func TestLocate_ClassifierUnknownIDRejected(t *testing.T) {
	c := &stubClassifier{answer: "n2, bogus"}
	l := New(c, testLogger())

	ids, err := l.Locate(context.Background(), "dok4", nodes())

	// Whole answer discarded; the fallback matcher still finds the node.
	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, ids)
}

func TestLocate_ClassifierErrorFallsBack(t *testing.T) {
	c := &stubClassifier{err: errors.New("model unavailable")}
	l := New(c, testLogger())

	ids, err := l.Locate(context.Background(), "dok3", nodes())

	require.NoError(t, err)
	assert.Equal(t, []string{"n3"}, ids)
}

func TestLocate_SuspiciousAnswersRejected(t *testing.T) {
	for _, answer := range []string{
		"```\nn2\n```",
		"def locate():",
		"the answer is n2\nbecause it matches",
		"<node>n2</node>",
	} {
		c := &stubClassifier{answer: answer}
		l := New(c, testLogger())

		ids, err := l.Locate(context.Background(), "dok4", nodes())

		require.NoError(t, err, "answer %q", answer)
		assert.Equal(t, []string{"n2"}, ids, "answer %q", answer)
	}
}

func TestLocate_NilClassifierUsesFallback(t *testing.T) {
	l := New(nil, testLogger())

	ids, err := l.Locate(context.Background(), "dok4", nodes())

	require.NoError(t, err)
	assert.Equal(t, []string{"n2"}, ids)
}

func TestLocate_NoCandidates(t *testing.T) {
	l := New(nil, testLogger())

	_, err := l.Locate(context.Background(), "dok4", nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLocate_NothingMatches(t *testing.T) {
	l := New(nil, testLogger())

	_, err := l.Locate(context.Background(), "dok4", []domain.Node{
		{ID: "n1", Name: "Purpose"},
		{ID: "n2", Name: "Experts"},
	})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestFallbackMatch_ExactNameAfterMarkupStrip(t *testing.T) {
	ids := FallbackMatch("Spiky POVs", []domain.Node{
		{ID: "n1", Name: "- **Spiky POVs**"},
		{ID: "n2", Name: "Spiky POVs and more"},
	})
	assert.Equal(t, []string{"n1"}, ids)
}

func TestFallbackMatch_SynonymSubstring(t *testing.T) {
	ids := FallbackMatch("dok3", []domain.Node{
		{ID: "n1", Name: "Purpose"},
		{ID: "n2", Name: "Insights from the field"},
		{ID: "n3", Name: "Key Insight"},
	})
	assert.Equal(t, []string{"n2", "n3"}, ids)
}

func TestFallbackMatch_RawSubstringLastResort(t *testing.T) {
	ids := FallbackMatch("experts", []domain.Node{
		{ID: "n1", Name: "Panel of Experts 2024"},
	})
	assert.Equal(t, []string{"n1"}, ids)
}

func TestFallbackMatch_NoDuplicateIDs(t *testing.T) {
	ids := FallbackMatch("dok4", []domain.Node{
		{ID: "n1", Name: "Spiky POV (SPOV) collection"},
	})
	assert.Equal(t, []string{"n1"}, ids)
}

func TestSuspicious(t *testing.T) {
	assert.True(t, suspicious("```python"))
	assert.True(t, suspicious("a\nb"))
	assert.True(t, suspicious("{\"id\": 1}"))
	assert.False(t, suspicious("abc-123"))
	assert.False(t, suspicious("n1, n2"))
}
