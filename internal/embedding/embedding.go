package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
	"docqa/internal/helper"
)

// ErrEmbeddingFailed indicates the embedding service errored or returned no data.
var ErrEmbeddingFailed = errors.New("failed to generate embeddings")

const (
	retryAttempts = 3
	retryBackoff  = time.Second
)

// NewEmbedder creates an embedder backed by the configured OpenAI-compatible
// embedding endpoint.
func NewEmbedder(cfg *config.OpenAIConfig) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}

// EmbedText generates a fixed-length vector for the given text. Newlines are
// collapsed to spaces first, matching what the embedding model expects.
func EmbedText(ctx context.Context, embedder embeddings.Embedder, text string) ([]float32, error) {
	clean := strings.ReplaceAll(text, "\n", " ")

	var vector []float32
	err := helper.Retry(ctx, retryAttempts, retryBackoff, func() error {
		var err error
		vector, err = embedder.EmbedQuery(ctx, clean)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector returned", ErrEmbeddingFailed)
	}
	return vector, nil
}
