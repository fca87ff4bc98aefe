package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docqa/internal/catalog"
	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/llmservice"
	"docqa/internal/rag"
	"docqa/internal/server"
	"docqa/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	embedder, err := embedding.NewEmbedder(&cfg.OpenAI)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	llmClient, err := llmservice.NewClient(&cfg.OpenAI)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	store, err := vectorstore.New(&cfg.VectorStore)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to vector store")
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ensure(ctx, cfg.VectorStore.VectorSize); err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector collection")
	}

	cat, err := catalog.Connect(&cfg.Catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to catalog database")
	}
	defer cat.Close()
	if err := cat.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error initializing catalog")
	}

	ingestor := rag.NewIngestor(embedder, store, cat, &cfg.RAG)
	pipeline := rag.NewPipeline(embedder, store, llmClient, &cfg.RAG)

	srv := server.NewServer(ingestor, pipeline, store, cat, cfg.VectorStore.VectorSize, &cfg.Server)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Error starting server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}
