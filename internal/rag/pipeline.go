package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"docqa/internal/config"
	"docqa/internal/embedding"
	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/vectorstore"
)

var (
	// ErrEmptyQuestion indicates a blank or whitespace-only question.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrEmptyAnswer indicates the model produced a blank answer.
	ErrEmptyAnswer = errors.New("model returned an empty answer")
)

// maxResponseSources caps how many source payloads are echoed back to the
// caller.
const maxResponseSources = 3

// Generator is the chat-completion surface the query pipeline needs.
// *llmservice.Client satisfies it.
type Generator interface {
	GenerateAnswer(ctx context.Context, question, docContext string) (string, error)
	Classify(ctx context.Context, question, contextSample string) (llmservice.Category, error)
}

// Pipeline answers questions: classify, retrieve when the question needs
// document context, compose that context and generate a grounded answer.
type Pipeline struct {
	embedder embeddings.Embedder
	store    vectorstore.Store
	llm      Generator
	cfg      *config.RAGConfig
}

func NewPipeline(embedder embeddings.Embedder, store vectorstore.Store, llm Generator, cfg *config.RAGConfig) *Pipeline {
	return &Pipeline{embedder: embedder, store: store, llm: llm, cfg: cfg}
}

// Answer runs the query pipeline for one question.
func (p *Pipeline) Answer(ctx context.Context, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	vector, err := embedding.EmbedText(ctx, p.embedder, question)
	if err != nil {
		return nil, err
	}

	results, err := p.store.Search(ctx, vector, p.cfg.TopK, p.cfg.ScoreThreshold)
	if err != nil {
		return nil, err
	}

	category := p.classify(ctx, question, results)
	if category == llmservice.CategoryGeneralKnowledge {
		return p.generate(ctx, question, nil, "")
	}

	if len(results) == 0 {
		// Nothing cleared the relevance threshold; answer without context
		// instead of failing.
		log.Debug().Str("question", question).Msg("no results above threshold, answering without context")
		return p.generate(ctx, question, nil, models.NoSourcesNote)
	}

	return p.generate(ctx, question, results, "")
}

// classify asks the model which category the question falls in, feeding it
// a sample of the retrieved context. Classification is advisory: any error
// falls toward context-specific.
func (p *Pipeline) classify(ctx context.Context, question string, results []models.SearchResult) llmservice.Category {
	category, err := p.llm.Classify(ctx, question, composeContext(results))
	if err != nil {
		log.Warn().Err(err).Msg("classification failed, defaulting to context-specific")
		return llmservice.CategoryContextSpecific
	}
	return category
}

func (p *Pipeline) generate(ctx context.Context, question string, results []models.SearchResult, note string) (*models.Answer, error) {
	answer, err := p.llm.GenerateAnswer(ctx, question, composeContext(results))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	sources := make([]models.Source, 0, maxResponseSources)
	for _, r := range results {
		if len(sources) == maxResponseSources {
			break
		}
		sources = append(sources, r.Source)
	}

	return &models.Answer{
		Question: question,
		Answer:   answer,
		Sources:  sources,
		Note:     note,
	}, nil
}

// composeContext joins retrieved chunk texts with newlines, keeping rank
// order.
func composeContext(results []models.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Source.Content)
	}
	return strings.Join(parts, "\n")
}
