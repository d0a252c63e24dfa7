package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"code.sajari.com/docconv"
)

// Recognizer turns one page image (PNG bytes) into text with a confidence
// in [0,1].
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (string, float64, error)
}

// DocconvRecognizer routes page images through docconv's tesseract-backed
// image conversion.
type DocconvRecognizer struct{}

var _ Recognizer = (*DocconvRecognizer)(nil)

func (r *DocconvRecognizer) Recognize(ctx context.Context, png []byte) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	res, err := docconv.Convert(bytes.NewReader(png), "image/png", false)
	if err != nil {
		return "", 0, fmt.Errorf("docconv: %w", err)
	}
	text := strings.TrimSpace(res.Body)
	return text, estimateConfidence(text), nil
}

// estimateConfidence scores recognized text by how word-like it is: the
// share of letters/digits among non-space runes, damped when the output is
// very short. docconv does not surface per-glyph confidences, so this stands
// in for the recognizer's own score.
func estimateConfidence(text string) float64 {
	if text == "" {
		return 0
	}
	var total, wordlike int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			wordlike++
		}
	}
	if total == 0 {
		return 0
	}
	score := float64(wordlike) / float64(total)
	if total < 80 {
		score *= float64(total) / 80
	}
	return score
}
