package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"docqa/internal/config"
	"docqa/internal/helper"
	"docqa/internal/models"
)

const (
	qdrantMaxMessageSize = 50 * 1024 * 1024
	qdrantDialTimeout    = 5 * time.Second
	qdrantRequestTimeout = 30 * time.Second
	qdrantRetryAttempts  = 3
)

// QdrantStore talks to an external Qdrant instance over gRPC using cosine
// distance. All operations carry per-call timeouts and bounded retries on
// transient failures.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore connects to Qdrant and verifies the connection with a
// health check.
func NewQdrantStore(cfg *config.VectorStoreConfig) (*QdrantStore, error) {
	qdrantConfig := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(qdrantMaxMessageSize),
				grpc.MaxCallSendMsgSize(qdrantMaxMessageSize),
			),
		},
	}
	if !cfg.UseTLS {
		qdrantConfig.GrpcOptions = append(qdrantConfig.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s := &QdrantStore{client: client, collection: cfg.Collection}

	ctx, cancel := context.WithTimeout(context.Background(), qdrantDialTimeout)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: health check failed: %v", ErrStoreUnavailable, err)
	}

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("qdrant connection established")
	return s, nil
}

func (s *QdrantStore) Ensure(ctx context.Context, vectorSize int) error {
	ctx, cancel := context.WithTimeout(ctx, qdrantRequestTimeout)
	defer cancel()

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.createCollection(ctx, vectorSize)
}

func (s *QdrantStore) Reset(ctx context.Context, vectorSize int) error {
	ctx, cancel := context.WithTimeout(ctx, qdrantRequestTimeout)
	defer cancel()

	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := s.retry(ctx, func() error {
			return s.client.DeleteCollection(ctx, s.collection)
		}); err != nil {
			return fmt.Errorf("deleting collection %s: %w", s.collection, err)
		}
	}
	return s.createCollection(ctx, vectorSize)
}

func (s *QdrantStore) Store(ctx context.Context, vectors [][]float32, payloads []models.Source) error {
	if len(vectors) == 0 || len(payloads) == 0 {
		return nil
	}
	if len(vectors) != len(payloads) {
		return fmt.Errorf("vectors and payloads length mismatch: %d != %d", len(vectors), len(payloads))
	}

	ctx, cancel := context.WithTimeout(ctx, qdrantRequestTimeout)
	defer cancel()

	points := make([]*qdrant.PointStruct, len(vectors))
	for i, vector := range vectors {
		payload := payloads[i]
		if payload.ID == "" {
			id, err := helper.GenerateUUID()
			if err != nil {
				return err
			}
			payload.ID = id
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(payload.ID),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"id":       payload.ID,
				"filename": payload.Filename,
				"content":  payload.Content,
			}),
		}
	}

	return s.retry(ctx, func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	})
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]models.SearchResult, error) {
	if len(vector) == 0 || topK <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, qdrantRequestTimeout)
	defer cancel()

	var scored []*qdrant.ScoredPoint
	err := s.retry(ctx, func() error {
		res, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(topK)),
			ScoreThreshold: qdrant.PtrOf(threshold),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return err
		}
		scored = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", ErrStoreUnavailable, err)
	}

	results := make([]models.SearchResult, 0, len(scored))
	for _, point := range scored {
		results = append(results, models.SearchResult{
			Score:  point.Score,
			Source: sourceFromPayload(point.Payload),
		})
	}
	return results, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, qdrantRequestTimeout)
	defer cancel()

	var count uint64
	err := s.retry(ctx, func() error {
		n, err := s.client.Count(ctx, &qdrant.CountPoints{CollectionName: s.collection})
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count failed: %v", ErrStoreUnavailable, err)
	}
	return int(count), nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (s *QdrantStore) createCollection(ctx context.Context, vectorSize int) error {
	err := s.retry(ctx, func() error {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}
	log.Info().Str("collection", s.collection).Int("vector_size", vectorSize).Msg("collection created")
	return nil
}

func (s *QdrantStore) collectionExists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.retry(ctx, func() error {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
				exists = false
				return nil
			}
			return err
		}
		exists = info != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return exists, nil
}

// retry wraps transient gRPC failures in bounded exponential backoff.
// Non-transient status codes fail immediately.
func (s *QdrantStore) retry(ctx context.Context, operation func() error) error {
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= qdrantRetryAttempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) || attempt == qdrantRetryAttempts {
			return lastErr
		}
		log.Debug().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("retrying qdrant operation")
		select {
		case <-ctx.Done():
			return fmt.Errorf("operation canceled: %w", ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return lastErr
}

func isTransient(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

func sourceFromPayload(payload map[string]*qdrant.Value) models.Source {
	var src models.Source
	if v, ok := payload["id"]; ok {
		src.ID = v.GetStringValue()
	}
	if v, ok := payload["filename"]; ok {
		src.Filename = v.GetStringValue()
	}
	if v, ok := payload["content"]; ok {
		src.Content = v.GetStringValue()
	}
	return src
}

var _ Store = (*QdrantStore)(nil)
