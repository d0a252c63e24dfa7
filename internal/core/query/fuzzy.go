package query

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Similarity is the normalized Levenshtein similarity of two strings:
// 1 - distance/max(len). Identical strings score 1.0, fully different 0.0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(longest)
}

// wordOverlapSimilarity scores how well the words of phrase appear in the
// query. Each phrase word takes its best similarity against any query word;
// the result is the mean. Tolerates typos ("compresor") and partial mentions
// ("the FIAC unit" vs "FIAC compressor").
func wordOverlapSimilarity(queryWords []string, phrase string) float64 {
	phraseWords := Tokenize(phrase)
	if len(phraseWords) == 0 || len(queryWords) == 0 {
		return 0
	}
	var sum float64
	for _, pw := range phraseWords {
		best := 0.0
		for _, qw := range queryWords {
			if s := Similarity(qw, pw); s > best {
				best = s
			}
		}
		sum += best
	}
	return sum / float64(len(phraseWords))
}

// Normalize lowercases and collapses everything that is not a letter or
// digit into single spaces. Matching always happens on normalized text.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits normalized text into words.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}
