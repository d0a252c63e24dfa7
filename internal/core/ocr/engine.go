package ocr

import (
	"bytes"
	"context"
	"image/png"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/maintexa-ai/maintexa/internal/core/pdf"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// PageResult is the recognition output for one page. Failed pages keep an
// empty Text and zero Confidence instead of failing the job.
type PageResult struct {
	PageNumber int
	Text       string
	Confidence float64
}

// Result is a whole-document OCR outcome. Confidence is the mean of the
// per-page confidences.
type Result struct {
	Pages      []PageResult
	Text       string
	Confidence float64
}

// ProgressFunc is called once per completed page.
type ProgressFunc func(done, total int)

// Engine recognizes a document's pages with a bounded pool of workers. The
// pool exists for the duration of one Run call only.
type Engine struct {
	log         *logger.Logger
	rec         Recognizer
	concurrency int
}

func NewEngine(log *logger.Logger, rec Recognizer, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Engine{log: log, rec: rec, concurrency: concurrency}
}

// Run OCRs every page image. Workers take pages round-robin (worker w gets
// pages w, w+N, w+2N, ...) and write into a pre-sized slice indexed by
// position, so output order never depends on completion order.
func (e *Engine) Run(ctx context.Context, pages []pdf.PageImage, onProgress ProgressFunc) (*Result, error) {
	if len(pages) == 0 {
		return &Result{}, nil
	}

	results := make([]PageResult, len(pages))
	done := make(chan int, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	workers := e.concurrency
	if workers > len(pages) {
		workers = len(pages)
	}

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for idx := w; idx < len(pages); idx += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[idx] = e.recognizePage(gctx, pages[idx])
				select {
				case done <- idx:
				default:
				}
			}
			return nil
		})
	}

	// Progress reporting off the hot path.
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		completed := 0
		for range done {
			completed++
			if onProgress != nil {
				onProgress(completed, len(pages))
			}
			if completed == len(pages) {
				return
			}
		}
	}()

	err := g.Wait()
	close(done)
	<-progressDone
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	sum := 0.0
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Text)
		sum += r.Confidence
	}

	return &Result{
		Pages:      results,
		Text:       strings.TrimSpace(b.String()),
		Confidence: sum / float64(len(results)),
	}, nil
}

func (e *Engine) recognizePage(ctx context.Context, page pdf.PageImage) PageResult {
	out := PageResult{PageNumber: page.PageNumber}

	pre := Preprocess(page.Image)
	var buf bytes.Buffer
	if err := png.Encode(&buf, pre); err != nil {
		e.log.Warn("page image encode failed", "page", page.PageNumber, "error", err)
		return out
	}

	text, conf, err := e.rec.Recognize(ctx, buf.Bytes())
	if err != nil {
		e.log.Warn("page recognition failed", "page", page.PageNumber, "error", err)
		return out
	}
	out.Text = text
	out.Confidence = conf
	return out
}
