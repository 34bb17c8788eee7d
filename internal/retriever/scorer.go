package retriever

import (
	"strings"
	"unicode"
)

// Scorer computes a similarity in [0,1] between two normalized strings. The
// metric is pluggable; WeightedRatioScorer is the default.
type Scorer interface {
	Similarity(a, b string) float64
}

// LevenshteinScorer scores strings by normalized edit distance:
// 1 - distance / max(len(a), len(b)).
type LevenshteinScorer struct{}

func (LevenshteinScorer) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein(ra, rb)
	return 1 - float64(dist)/float64(longest)
}

// WeightedRatioScorer blends the full Levenshtein ratio with a discounted
// partial ratio, so a mention that is a clean prefix or substring of a longer
// label ("Acme Corp" against "Acme Corporation") still scores highly. This is
// the default metric.
type WeightedRatioScorer struct{}

func (WeightedRatioScorer) Similarity(a, b string) float64 {
	full := LevenshteinScorer{}.Similarity(a, b)
	if partial := 0.9 * partialRatio(a, b); partial > full {
		return partial
	}
	return full
}

// partialRatio slides the shorter string across the longer one and returns
// the best Levenshtein ratio against any window of equal length.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	best := 0.0
	for start := 0; start+len(ra) <= len(rb); start++ {
		window := rb[start : start+len(ra)]
		ratio := 1 - float64(levenshtein(ra, window))/float64(len(ra))
		if ratio > best {
			best = ratio
		}
	}
	return best
}

// levenshtein computes edit distance with a two-row dynamic programming table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Normalize case-folds a string, replaces punctuation with spaces, and
// collapses whitespace. Both mentions and node labels pass through this before
// comparison.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
