package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"docqa/internal/helper"
	"docqa/internal/models"
)

// ChromemStore is an embedded in-process vector store. It backs local
// development without a running Qdrant and is what the store-level tests
// exercise.
type ChromemStore struct {
	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	vectorSize int
}

func NewChromemStore(collectionName string) (*ChromemStore, error) {
	return &ChromemStore{
		db:   chromem.NewDB(),
		name: collectionName,
	}, nil
}

func (s *ChromemStore) Ensure(_ context.Context, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection != nil {
		return nil
	}
	return s.createCollection(vectorSize)
}

func (s *ChromemStore) Reset(_ context.Context, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collection != nil {
		if err := s.db.DeleteCollection(s.name); err != nil {
			return fmt.Errorf("deleting collection %s: %w", s.name, err)
		}
		s.collection = nil
	}
	return s.createCollection(vectorSize)
}

func (s *ChromemStore) Store(ctx context.Context, vectors [][]float32, payloads []models.Source) error {
	if len(vectors) == 0 || len(payloads) == 0 {
		return nil
	}
	if len(vectors) != len(payloads) {
		return fmt.Errorf("vectors and payloads length mismatch: %d != %d", len(vectors), len(payloads))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return fmt.Errorf("%w: collection not initialized", ErrStoreUnavailable)
	}

	docs := make([]chromem.Document, len(vectors))
	for i, vector := range vectors {
		if len(vector) != s.vectorSize {
			return fmt.Errorf("%w: got %d, collection expects %d", ErrDimensionMismatch, len(vector), s.vectorSize)
		}
		payload := payloads[i]
		if payload.ID == "" {
			id, err := helper.GenerateUUID()
			if err != nil {
				return err
			}
			payload.ID = id
		}
		docs[i] = chromem.Document{
			ID:        payload.ID,
			Content:   payload.Content,
			Metadata:  map[string]string{"filename": payload.Filename},
			Embedding: vector,
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]models.SearchResult, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	collection := s.collection
	s.mu.Unlock()
	if collection == nil {
		return nil, nil
	}

	// chromem rejects queries asking for more results than stored documents.
	if count := collection.Count(); count < topK {
		if count == 0 {
			return nil, nil
		}
		topK = count
	}

	raw, err := collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       topK,
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]models.SearchResult, 0, len(raw))
	for _, r := range raw {
		if r.Similarity < threshold {
			continue
		}
		results = append(results, models.SearchResult{
			Score: r.Similarity,
			Source: models.Source{
				ID:       r.ID,
				Filename: r.Metadata["filename"],
				Content:  r.Content,
			},
		})
	}
	return results, nil
}

func (s *ChromemStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection == nil {
		return 0, nil
	}
	return s.collection.Count(), nil
}

func (s *ChromemStore) Close() error {
	return nil
}

// createCollection assumes s.mu is held.
func (s *ChromemStore) createCollection(vectorSize int) error {
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.name, err)
	}
	s.collection = c
	s.vectorSize = vectorSize
	return nil
}

var _ Store = (*ChromemStore)(nil)
