package rag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

func testIngestor(t *testing.T, embedder *fakeEmbedder, store *fakeStore) *Ingestor {
	t.Helper()
	cfg := testRAGConfig()
	cfg.UploadDir = filepath.Join(t.TempDir(), "uploads")
	return NewIngestor(embedder, store, nil, cfg)
}

func TestIngestRejectsNonPDF(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	store := &fakeStore{}
	in := testIngestor(t, embedder, store)

	reports := in.IngestFiles(context.Background(), []UploadedFile{
		{Filename: "notes.txt", Data: []byte("some text")},
	})

	require.Len(t, reports, 1)
	assert.Equal(t, models.StatusFailed, reports[0].Status)
	assert.Contains(t, reports[0].Error, "PDF")

	// Rejected before any extraction or embedding.
	assert.Zero(t, embedder.calls)
	assert.Empty(t, store.stored)
}

func TestIngestUnreadablePDF(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	store := &fakeStore{}
	in := testIngestor(t, embedder, store)

	reports := in.IngestFiles(context.Background(), []UploadedFile{
		{Filename: "broken.pdf", Data: []byte("not actually a pdf")},
	})

	require.Len(t, reports, 1)
	assert.Equal(t, models.StatusFailed, reports[0].Status)
	assert.Zero(t, embedder.calls)
	assert.Empty(t, store.stored)
}

func TestIngestBatchContinuesPastFailures(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	store := &fakeStore{}
	in := testIngestor(t, embedder, store)

	reports := in.IngestFiles(context.Background(), []UploadedFile{
		{Filename: "first.txt", Data: []byte("wrong type")},
		{Filename: "second.pdf", Data: []byte("unreadable")},
		{Filename: "third.docx", Data: []byte("also wrong")},
	})

	// Each file gets its own verdict; earlier failures never abort the batch.
	require.Len(t, reports, 3)
	for i, report := range reports {
		assert.Equal(t, models.StatusFailed, report.Status, "report %d", i)
		assert.NotEmpty(t, report.Error)
	}
	assert.Equal(t, "first.txt", reports[0].Filename)
	assert.Equal(t, "second.pdf", reports[1].Filename)
	assert.Equal(t, "third.docx", reports[2].Filename)
}
