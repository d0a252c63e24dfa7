package core

import "context"

// EmbeddingProvider turns text into fixed-length vectors.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider generates completions. GenerateStream pushes text deltas onto
// the returned channel and closes it when the model finishes or ctx is
// cancelled; a terminal error, if any, is delivered on the error channel.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	GenerateStream(ctx context.Context, systemPrompt string, userPrompt string) (<-chan string, <-chan error)
}
