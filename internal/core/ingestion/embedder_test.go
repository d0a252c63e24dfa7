package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/testutil"
)

func TestEmbedAllBatching(t *testing.T) {
	emb := &testutil.FakeEmbedder{Dim: 3}
	texts := make([]string, 95)
	for i := range texts {
		texts[i] = "chunk"
	}

	var progress []int
	vecs, err := NewBatchEmbedder(emb, 40, 100, 3).EmbedAll(context.Background(), texts, func(done, total int) {
		assert.Equal(t, 95, total)
		progress = append(progress, done)
	})
	require.NoError(t, err)
	assert.Len(t, vecs, 95)
	assert.Equal(t, 3, emb.Calls(), "95 texts at batch size 40 should take 3 calls")
	assert.Equal(t, []int{40, 80, 95}, progress)
}

func TestEmbedAllProviderError(t *testing.T) {
	emb := &testutil.FakeEmbedder{
		EmbedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("quota exceeded")
		},
	}

	_, err := NewBatchEmbedder(emb, 40, 100, 0).EmbedAll(context.Background(), []string{"a"}, nil)
	var svcErr *core.EmbeddingServiceError
	require.ErrorAs(t, err, &svcErr)
}

func TestEmbedAllCountMismatch(t *testing.T) {
	emb := &testutil.FakeEmbedder{
		EmbedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		},
	}

	_, err := NewBatchEmbedder(emb, 40, 100, 0).EmbedAll(context.Background(), []string{"a", "b"}, nil)
	var svcErr *core.EmbeddingServiceError
	require.ErrorAs(t, err, &svcErr)
}

func TestEmbedAllDimensionMismatch(t *testing.T) {
	// A vector narrower than the pgvector column must be rejected here, not
	// at insert time.
	emb := &testutil.FakeEmbedder{Dim: 4}

	_, err := NewBatchEmbedder(emb, 40, 100, 768).EmbedAll(context.Background(), []string{"a"}, nil)
	var svcErr *core.EmbeddingServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestEmbedAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emb := &testutil.FakeEmbedder{}
	_, err := NewBatchEmbedder(emb, 40, 100, 0).EmbedAll(ctx, []string{"a"}, nil)
	require.Error(t, err)
	assert.Zero(t, emb.Calls())
}
