package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/maintexa_test")

	cfg := LoadConfig()

	assert.Equal(t, "postgres://localhost/maintexa_test", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "text-embedding-004", cfg.EmbedModel)
	assert.Equal(t, 768, cfg.EmbedDim)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 100, cfg.MinExtractedChars)
	assert.Equal(t, 1500, cfg.ChunkTargetSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.OCRConcurrency)
	assert.Equal(t, 40, cfg.EmbedBatchSize)
	assert.Equal(t, 0.65, cfg.FuzzyThreshold)
	assert.Equal(t, 3, cfg.GraphMaxDepth)
	assert.Equal(t, 15, cfg.MaxSearchResults)
	assert.Equal(t, 100, cfg.FullAnalysisMinLen)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/maintexa_test")
	t.Setenv("OCR_CONCURRENCY", "8")
	t.Setenv("FUZZY_THRESHOLD", "0.8")

	cfg := LoadConfig()

	assert.Equal(t, 8, cfg.OCRConcurrency)
	assert.Equal(t, 0.8, cfg.FuzzyThreshold)
}

func TestEnvHelpersBadValues(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	t.Setenv("SOME_FLOAT", "nope")

	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
	assert.Equal(t, 0.5, getEnvFloat("SOME_FLOAT", 0.5))
}
