package ingestion

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/maintexa-ai/maintexa/internal/core"
)

// BatchEmbedder converts chunk text to vectors in fixed-size sequential
// batches, pacing calls with a rate limiter to respect the embedding
// service's limits. Batches are not parallelized.
type BatchEmbedder struct {
	provider  core.EmbeddingProvider
	batchSize int
	dim       int
	limiter   *rate.Limiter
}

// NewBatchEmbedder wraps provider. dim is the expected vector length; it must
// match the pgvector column, so a vector of any other length is rejected
// before it reaches the insert. dim <= 0 disables the check.
func NewBatchEmbedder(provider core.EmbeddingProvider, batchSize, callsPerSec, dim int) *BatchEmbedder {
	if batchSize <= 0 {
		batchSize = 40
	}
	if callsPerSec <= 0 {
		callsPerSec = 2
	}
	return &BatchEmbedder{
		provider:  provider,
		batchSize: batchSize,
		dim:       dim,
		limiter:   rate.NewLimiter(rate.Limit(callsPerSec), 1),
	}
}

// EmbedAll returns one vector per input text, in order. onBatch, if set, is
// called after each completed batch with the count of texts embedded so far.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string, onBatch func(done, total int)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		vecs, err := b.provider.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, &core.EmbeddingServiceError{Err: err}
		}
		if len(vecs) != end-start {
			return nil, &core.EmbeddingServiceError{
				Err: fmt.Errorf("embedding count mismatch: got %d want %d", len(vecs), end-start),
			}
		}
		if b.dim > 0 {
			for i, v := range vecs {
				if len(v) != b.dim {
					return nil, &core.EmbeddingServiceError{
						Err: fmt.Errorf("embedding dimension mismatch at index %d: got %d want %d", start+i, len(v), b.dim),
					}
				}
			}
		}
		out = append(out, vecs...)
		if onBatch != nil {
			onBatch(end, len(texts))
		}
	}
	return out, nil
}
