package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/core/pdf"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// widthRecognizer recovers the page number encoded in the image width: the
// engine preprocesses (including a 3x upscale for small images) before
// calling the recognizer, so page N arrives as width 3*(10+N).
type widthRecognizer struct {
	failPage int
}

func (r *widthRecognizer) Recognize(ctx context.Context, data []byte) (string, float64, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, err
	}
	page := cfg.Width/3 - 10
	if page == r.failPage {
		return "", 0, errors.New("unreadable page")
	}
	return fmt.Sprintf("page %d text", page), 0.9, nil
}

func testPages(n int) []pdf.PageImage {
	pages := make([]pdf.PageImage, n)
	for i := range pages {
		pages[i] = pdf.PageImage{
			PageNumber: i + 1,
			Image:      image.NewGray(image.Rect(0, 0, 10+i+1, 20)),
		}
	}
	return pages
}

func TestEngineDeterministicOrdering(t *testing.T) {
	engine := NewEngine(logger.NewNop(), &widthRecognizer{failPage: -1}, 3)

	res, err := engine.Run(context.Background(), testPages(7), nil)
	require.NoError(t, err)
	require.Len(t, res.Pages, 7)

	for i, pr := range res.Pages {
		assert.Equal(t, i+1, pr.PageNumber)
		assert.Equal(t, fmt.Sprintf("page %d text", i+1), pr.Text, "results must be page-ordered regardless of completion order")
	}
	assert.InDelta(t, 0.9, res.Confidence, 0.001)
}

func TestEngineFailedPageDegrades(t *testing.T) {
	engine := NewEngine(logger.NewNop(), &widthRecognizer{failPage: 2}, 4)

	res, err := engine.Run(context.Background(), testPages(4), nil)
	require.NoError(t, err, "a single unreadable page must not fail the job")
	require.Len(t, res.Pages, 4)

	assert.Empty(t, res.Pages[1].Text)
	assert.Zero(t, res.Pages[1].Confidence)
	assert.NotEmpty(t, res.Pages[0].Text)
	assert.InDelta(t, 0.9*3/4, res.Confidence, 0.001)
}

func TestEngineProgressReachesTotal(t *testing.T) {
	engine := NewEngine(logger.NewNop(), &widthRecognizer{failPage: -1}, 2)

	var mu sync.Mutex
	var seen []int
	_, err := engine.Run(context.Background(), testPages(5), func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, total)
		seen = append(seen, done)
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 5, seen[len(seen)-1])
}

func TestEngineEmptyInput(t *testing.T) {
	engine := NewEngine(logger.NewNop(), &widthRecognizer{}, 4)
	res, err := engine.Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
}

func TestEngineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(logger.NewNop(), &widthRecognizer{failPage: -1}, 2)
	_, err := engine.Run(ctx, testPages(5), nil)
	assert.Error(t, err)
}
