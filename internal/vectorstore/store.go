// Package vectorstore persists embedding vectors and answers
// nearest-neighbor queries over them.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"docqa/internal/config"
	"docqa/internal/models"
)

var (
	// ErrStoreUnavailable indicates the backing vector store could not be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrDimensionMismatch indicates a vector's length does not match the
	// collection's configured size.
	ErrDimensionMismatch = errors.New("vector dimensionality mismatch")
)

// Store is the interface both vector store backends implement.
//
// Ensure creates the collection if it is missing and leaves existing data
// alone; Reset destructively recreates it. Startup uses Ensure so a process
// restart never erases stored embeddings; only the explicit reset endpoint
// calls Reset.
type Store interface {
	// Ensure creates the collection with the given vector size if it does
	// not exist yet. Idempotent.
	Ensure(ctx context.Context, vectorSize int) error

	// Reset drops the collection and recreates it empty. Destructive.
	Reset(ctx context.Context, vectorSize int) error

	// Store appends records, assigning a generated id to any payload
	// lacking one. Storing zero vectors is a no-op, not an error.
	Store(ctx context.Context, vectors [][]float32, payloads []models.Source) error

	// Search returns up to topK records by cosine similarity with
	// score >= threshold, descending by score. An empty store, an empty
	// query vector, or nothing clearing the threshold yields an empty
	// result, not an error.
	Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]models.SearchResult, error)

	// Count reports the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases the backend connection.
	Close() error
}

// New builds the Store selected by cfg.Backend.
func New(cfg *config.VectorStoreConfig) (Store, error) {
	switch cfg.Backend {
	case "qdrant":
		return NewQdrantStore(cfg)
	case "chromem":
		return NewChromemStore(cfg.Collection)
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.Backend)
	}
}
