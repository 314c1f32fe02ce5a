package outline

import (
	"crypto/sha256"
	"encoding/hex"
	"html"
	"strings"

	"brainlift_tracker/internal/domain"
)

// Normalize canonicalizes content text for signature and comparison
// purposes: HTML entities decoded, surrounding whitespace trimmed,
// lower-cased, internal whitespace runs collapsed to one space.
func Normalize(text string) string {
	text = html.UnescapeString(text)
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.Join(strings.Fields(text), " ")
}

// Signature returns a stable equality key for a point: the hash of its
// normalized main content concatenated with its normalized sub-points in
// order. Position within the section does not participate.
func Signature(p domain.Point) string {
	var b strings.Builder
	b.WriteString(Normalize(p.MainContent))
	for _, sub := range p.SubPoints {
		b.WriteString("\n")
		b.WriteString(Normalize(sub))
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Similarity scores two text blobs in [0,1] using a character-level longest
// common subsequence: unchanged characters divided by the length of the
// longer input. Identical inputs score 1.0, disjoint inputs 0.0. The score
// is symmetric.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	common := lcsLength(ra, rb)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	return float64(common) / float64(longer)
}

// DiffCounts reports character-level additions, deletions and unchanged
// counts between a previous and a current text.
func DiffCounts(previous, current string) (additions, deletions, unchanged int) {
	ra, rb := []rune(previous), []rune(current)
	unchanged = lcsLength(ra, rb)
	deletions = len(ra) - unchanged
	additions = len(rb) - unchanged
	return additions, deletions, unchanged
}

// lcsLength computes the longest-common-subsequence length with a two-row
// table, O(len(a)*len(b)) time and O(min-row) space.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
