package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docqa/internal/catalog"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/models"
	"docqa/internal/parser"
	"docqa/internal/vectorstore"
)

// ErrNotPDF indicates an upload with a filename that does not end in ".pdf".
var ErrNotPDF = errors.New("only PDF files are allowed")

// UploadedFile is one file from an upload request.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// Ingestor runs the upload pipeline: extract text, chunk it, embed each
// chunk and store the vectors. One file's failure never aborts the batch.
type Ingestor struct {
	embedder embeddings.Embedder
	store    vectorstore.Store
	catalog  *catalog.Catalog
	cfg      *config.RAGConfig
}

func NewIngestor(embedder embeddings.Embedder, store vectorstore.Store, cat *catalog.Catalog, cfg *config.RAGConfig) *Ingestor {
	return &Ingestor{embedder: embedder, store: store, catalog: cat, cfg: cfg}
}

// IngestFiles processes each file independently and returns a per-file report.
func (in *Ingestor) IngestFiles(ctx context.Context, files []UploadedFile) []models.FileReport {
	reports := make([]models.FileReport, 0, len(files))
	for _, file := range files {
		chunks, err := in.ingestOne(ctx, file)
		report := models.FileReport{Filename: file.Filename, Status: models.StatusOK, Chunks: chunks}
		if err != nil {
			log.Error().Str("filename", file.Filename).Err(err).Msg("ingestion failed")
			report.Status = models.StatusFailed
			report.Error = err.Error()
			report.Chunks = 0
		}
		in.record(ctx, file, report)
		reports = append(reports, report)
	}
	return reports
}

func (in *Ingestor) ingestOne(ctx context.Context, file UploadedFile) (int, error) {
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return 0, ErrNotPDF
	}

	in.saveRaw(file)

	text, err := parser.ExtractText(file.Data)
	if err != nil {
		return 0, err
	}

	chunks := parser.Chunks(text, file.Filename, in.cfg.ChunkSize)
	if len(chunks) == 0 {
		return 0, parser.ErrEmptyDocument
	}

	vectors := make([][]float32, 0, len(chunks))
	payloads := make([]models.Source, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := embedding.EmbedText(ctx, in.embedder, chunk.Content)
		if err != nil {
			return 0, err
		}
		vectors = append(vectors, vector)
		payloads = append(payloads, models.Source{
			Filename: chunk.SourceFilename,
			Content:  chunk.Content,
		})
	}

	if err := in.store.Store(ctx, vectors, payloads); err != nil {
		return 0, err
	}

	log.Info().Str("filename", file.Filename).Int("chunks", len(chunks)).Msg("file ingested")
	return len(chunks), nil
}

// saveRaw writes the uploaded bytes to the upload dir. Best-effort: a write
// failure is logged per file, never fatal.
func (in *Ingestor) saveRaw(file UploadedFile) {
	if err := os.MkdirAll(in.cfg.UploadDir, 0o755); err != nil {
		log.Warn().Str("dir", in.cfg.UploadDir).Err(err).Msg("could not create upload dir")
		return
	}
	path := filepath.Join(in.cfg.UploadDir, filepath.Base(file.Filename))
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("could not persist uploaded file")
	}
}

// record writes the catalog row. Best-effort like the raw-file save.
func (in *Ingestor) record(ctx context.Context, file UploadedFile, report models.FileReport) {
	err := in.catalog.Record(ctx, &catalog.IngestionRecord{
		Filename:  report.Filename,
		SizeBytes: int64(len(file.Data)),
		Chunks:    report.Chunks,
		Status:    report.Status,
		Error:     report.Error,
	})
	if err != nil {
		log.Warn().Str("filename", report.Filename).Err(err).Msg("could not record ingestion")
	}
}
