package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("compressor", "compressor"))
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestSimilarityMonotonicity(t *testing.T) {
	// For fixed-length strings, similarity strictly decreases as edit
	// distance grows.
	base := "compressor"
	oneEdit := "compressoX"
	twoEdits := "compressXX"
	fourEdits := "compreXXXX"

	s0 := Similarity(base, base)
	s1 := Similarity(base, oneEdit)
	s2 := Similarity(base, twoEdits)
	s3 := Similarity(base, fourEdits)

	assert.Greater(t, s0, s1)
	assert.Greater(t, s1, s2)
	assert.Greater(t, s2, s3)
	assert.GreaterOrEqual(t, s3, 0.0)
}

func TestSimilarityTypoTolerance(t *testing.T) {
	assert.Greater(t, Similarity("compresor", "compressor"), 0.85)
	assert.Less(t, Similarity("boiler", "compressor"), 0.4)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "the fiac compressor 2", Normalize("  The FIAC-Compressor #2! "))
	assert.Equal(t, "", Normalize("!!! ---"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"main", "air", "compressor"}, Tokenize("Main AIR compressor."))
}

func TestWordOverlapSimilarity(t *testing.T) {
	query := Tokenize("the big fiac compresor is down")

	full := wordOverlapSimilarity(query, "FIAC Compressor")
	unrelated := wordOverlapSimilarity(query, "Packaging Line Conveyor")
	assert.Greater(t, full, 0.8)
	assert.Greater(t, full, unrelated)
}
