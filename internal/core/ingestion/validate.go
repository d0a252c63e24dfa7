package ingestion

import (
	"fmt"
	"strings"
)

// ValidationReport summarizes chunking diagnostics. Warnings never block
// ingestion; they exist for operators reading the logs.
type ValidationReport struct {
	ChunkCount int
	Tiny       int // < 200 chars
	Small      int // 200..599
	Normal     int // 600..TargetSize
	Large      int // > TargetSize
	Duplicates int
	Warnings   []string
}

// ValidateChunks computes count bounds, a size distribution, and duplicate
// detection over normalized content.
func ValidateChunks(chunks []Chunk, textLen int, cfg ChunkerConfig) ValidationReport {
	rep := ValidationReport{ChunkCount: len(chunks)}

	seen := make(map[string]bool, len(chunks))
	for _, ch := range chunks {
		n := len(ch.Content)
		switch {
		case n < 200:
			rep.Tiny++
		case n < 600:
			rep.Small++
		case n <= cfg.TargetSize:
			rep.Normal++
		default:
			rep.Large++
		}
		key := normalizeContent(ch.Content)
		if seen[key] {
			rep.Duplicates++
		}
		seen[key] = true
	}

	step := cfg.TargetSize - cfg.Overlap
	if step <= 0 {
		step = cfg.TargetSize
	}
	expected := textLen/step + 1

	if len(chunks) == 0 && textLen > 0 {
		rep.Warnings = append(rep.Warnings, "no chunks produced from non-empty text")
	}
	if len(chunks) > expected*3 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("chunk count %d far exceeds expected ~%d", len(chunks), expected))
	}
	if rep.Tiny > len(chunks)/2 && len(chunks) > 4 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d of %d chunks are tiny", rep.Tiny, len(chunks)))
	}
	if rep.Duplicates > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d duplicate chunks", rep.Duplicates))
	}
	return rep
}

func normalizeContent(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
