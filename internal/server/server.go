// Package server exposes the ingestion and question-answering pipelines
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"docqa/internal/catalog"
	"docqa/internal/config"
	"docqa/internal/models"
	"docqa/internal/rag"
	"docqa/internal/vectorstore"
)

// Ingestor is the upload pipeline surface.
type Ingestor interface {
	IngestFiles(ctx context.Context, files []rag.UploadedFile) []models.FileReport
}

// Answerer is the query pipeline surface.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.Answer, error)
}

type Server struct {
	echo       *echo.Echo
	ingestor   Ingestor
	answerer   Answerer
	store      vectorstore.Store
	catalog    *catalog.Catalog
	vectorSize int
	cfg        *config.ServerConfig
}

func NewServer(ingestor Ingestor, answerer Answerer, store vectorstore.Store, cat *catalog.Catalog, vectorSize int, cfg *config.ServerConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	corsConfig := middleware.DefaultCORSConfig
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	e.Use(middleware.CORSWithConfig(corsConfig))
	e.Use(requestLogger)

	s := &Server{
		echo:       e,
		ingestor:   ingestor,
		answerer:   answerer,
		store:      store,
		catalog:    cat,
		vectorSize: vectorSize,
		cfg:        cfg,
	}
	s.registerRoutes()
	return s
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		log.Info().
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("http request")

		return err
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/clear-qdrant", s.handleClear)

	api := s.echo.Group("/api")
	api.POST("/upload", s.handleUpload)
	api.POST("/qa", s.handleQA)
	api.GET("/ingestions", s.handleIngestions)
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	log.Info().Str("addr", addr).Msg("starting http server")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type qaRequest struct {
	Question string `json:"question"`
}

type uploadResponse struct {
	Results []models.FileReport `json:"results"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// handleUpload accepts a multipart batch of PDF files and returns a
// per-file report. Per-file failures live inside the report; the request
// itself only fails when no files were sent at all.
func (s *Server) handleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}

	files := make([]rag.UploadedFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		f, err := header.Open()
		if err != nil {
			files = append(files, rag.UploadedFile{Filename: header.Filename})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			files = append(files, rag.UploadedFile{Filename: header.Filename})
			continue
		}
		files = append(files, rag.UploadedFile{Filename: header.Filename, Data: data})
	}

	reports := s.ingestor.IngestFiles(c.Request().Context(), files)
	return c.JSON(http.StatusOK, uploadResponse{Results: reports})
}

func (s *Server) handleQA(c echo.Context) error {
	var req qaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	answer, err := s.answerer.Answer(c.Request().Context(), req.Question)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// Upstream and unexpected failures alike surface as a generic
		// internal error; the cause stays in the logs.
		log.Error().Err(err).Msg("qa pipeline failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, answer)
}

// handleClear destructively recreates the vector collection. The path is
// kept for compatibility with existing frontends.
func (s *Server) handleClear(c echo.Context) error {
	if err := s.store.Reset(c.Request().Context(), s.vectorSize); err != nil {
		log.Error().Err(err).Msg("collection reset failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	log.Info().Msg("vector collection reset")
	return c.JSON(http.StatusOK, statusResponse{Status: "cleared"})
}

func (s *Server) handleIngestions(c echo.Context) error {
	recs, err := s.catalog.Recent(c.Request().Context(), 50)
	if err != nil {
		log.Error().Err(err).Msg("listing ingestions failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if recs == nil {
		recs = []catalog.IngestionRecord{}
	}
	return c.JSON(http.StatusOK, recs)
}
