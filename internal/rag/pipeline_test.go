package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/llmservice"
	"docqa/internal/models"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		f.calls++
		vectors[i] = f.vector
	}
	return vectors, nil
}

type fakeStore struct {
	results      []models.SearchResult
	searchErr    error
	stored       [][]float32
	payloads     []models.Source
	searchCalls  int
	lastTopK     int
	lastMinScore float32
}

func (f *fakeStore) Ensure(context.Context, int) error { return nil }
func (f *fakeStore) Reset(context.Context, int) error  { return nil }
func (f *fakeStore) Close() error                      { return nil }

func (f *fakeStore) Store(_ context.Context, vectors [][]float32, payloads []models.Source) error {
	f.stored = append(f.stored, vectors...)
	f.payloads = append(f.payloads, payloads...)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ []float32, topK int, threshold float32) ([]models.SearchResult, error) {
	f.searchCalls++
	f.lastTopK = topK
	f.lastMinScore = threshold
	return f.results, f.searchErr
}

func (f *fakeStore) Count(context.Context) (int, error) { return len(f.stored), nil }

type fakeLLM struct {
	category      llmservice.Category
	classifyErr   error
	answer        string
	answerErr     error
	classifyCalls int
	answerCalls   int
	lastContext   string
}

func (f *fakeLLM) Classify(_ context.Context, _ string, _ string) (llmservice.Category, error) {
	f.classifyCalls++
	return f.category, f.classifyErr
}

func (f *fakeLLM) GenerateAnswer(_ context.Context, _ string, docContext string) (string, error) {
	f.answerCalls++
	f.lastContext = docContext
	return f.answer, f.answerErr
}

func testRAGConfig() *config.RAGConfig {
	return &config.RAGConfig{ChunkSize: 1000, TopK: 5, ScoreThreshold: 0.7, UploadDir: "./uploads"}
}

func hit(id, content string, score float32) models.SearchResult {
	return models.SearchResult{
		Score:  score,
		Source: models.Source{ID: id, Filename: id + ".pdf", Content: content},
	}
}

func TestPipelineRejectsEmptyQuestion(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{1}}
	store := &fakeStore{}
	llm := &fakeLLM{answer: "should not be called"}
	p := NewPipeline(embedder, store, llm, testRAGConfig())

	for _, question := range []string{"", "   ", "\n\t"} {
		answer, err := p.Answer(context.Background(), question)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyQuestion)
		assert.Nil(t, answer)
	}

	// No external calls before validation passes.
	assert.Zero(t, embedder.calls)
	assert.Zero(t, store.searchCalls)
	assert.Zero(t, llm.classifyCalls)
	assert.Zero(t, llm.answerCalls)
}

func TestPipelineGeneralKnowledgeSkipsSources(t *testing.T) {
	store := &fakeStore{results: []models.SearchResult{hit("a", "stored text", 0.9)}}
	llm := &fakeLLM{category: llmservice.CategoryGeneralKnowledge, answer: "Paris"}
	p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, store, llm, testRAGConfig())

	answer, err := p.Answer(context.Background(), "What is the capital of France?")
	require.NoError(t, err)

	// Sources stay empty even though the store had matching content.
	assert.Empty(t, answer.Sources)
	assert.Empty(t, answer.Note)
	assert.Equal(t, "Paris", answer.Answer)
	assert.Empty(t, llm.lastContext)
}

func TestPipelineContextSpecificUsesRetrievedContext(t *testing.T) {
	store := &fakeStore{results: []models.SearchResult{
		hit("a", "first chunk", 0.95),
		hit("b", "second chunk", 0.85),
	}}
	llm := &fakeLLM{category: llmservice.CategoryContextSpecific, answer: "Veltown"}
	p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, store, llm, testRAGConfig())

	answer, err := p.Answer(context.Background(), "What is the capital of Azuria?")
	require.NoError(t, err)

	assert.Equal(t, "Veltown", answer.Answer)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "a", answer.Sources[0].ID)
	assert.Equal(t, "first chunk\nsecond chunk", llm.lastContext)
	assert.Equal(t, 5, store.lastTopK)
	assert.Equal(t, float32(0.7), store.lastMinScore)
}

func TestPipelineTruncatesSources(t *testing.T) {
	store := &fakeStore{results: []models.SearchResult{
		hit("a", "one", 0.95),
		hit("b", "two", 0.9),
		hit("c", "three", 0.85),
		hit("d", "four", 0.8),
		hit("e", "five", 0.75),
	}}
	llm := &fakeLLM{category: llmservice.CategoryContextSpecific, answer: "answer"}
	p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, store, llm, testRAGConfig())

	answer, err := p.Answer(context.Background(), "question?")
	require.NoError(t, err)

	// Response carries at most the top 3 sources, but the generation
	// context includes every retrieved chunk.
	require.Len(t, answer.Sources, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{answer.Sources[0].ID, answer.Sources[1].ID, answer.Sources[2].ID})
	assert.Equal(t, 5, strings.Count(llm.lastContext, "\n")+1)
}

func TestPipelineFallsBackWhenNothingClearsThreshold(t *testing.T) {
	store := &fakeStore{results: nil}
	llm := &fakeLLM{category: llmservice.CategoryContextSpecific, answer: "best effort"}
	p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, store, llm, testRAGConfig())

	answer, err := p.Answer(context.Background(), "obscure question?")
	require.NoError(t, err)

	assert.Equal(t, "best effort", answer.Answer)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, models.NoSourcesNote, answer.Note)
	assert.Empty(t, llm.lastContext)
}

func TestPipelineClassifyErrorFallsTowardRetrieval(t *testing.T) {
	store := &fakeStore{results: []models.SearchResult{hit("a", "chunk", 0.9)}}
	llm := &fakeLLM{classifyErr: errors.New("model unavailable"), answer: "grounded"}
	p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, store, llm, testRAGConfig())

	answer, err := p.Answer(context.Background(), "question?")
	require.NoError(t, err)

	// Classification is advisory; a failed call still produces a grounded answer.
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "chunk", llm.lastContext)
}

func TestPipelineBlankAnswerIsServerError(t *testing.T) {
	store := &fakeStore{}
	llm := &fakeLLM{category: llmservice.CategoryGeneralKnowledge, answer: "   "}
	p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, store, llm, testRAGConfig())

	answer, err := p.Answer(context.Background(), "question?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Nil(t, answer)
}

func TestPipelinePropagatesUpstreamErrors(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		p := NewPipeline(&fakeEmbedder{err: errors.New("boom")}, &fakeStore{}, &fakeLLM{}, testRAGConfig())
		_, err := p.Answer(context.Background(), "question?")
		require.Error(t, err)
	})

	t.Run("search failure", func(t *testing.T) {
		store := &fakeStore{searchErr: errors.New("qdrant down")}
		p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, store, &fakeLLM{}, testRAGConfig())
		_, err := p.Answer(context.Background(), "question?")
		require.Error(t, err)
	})

	t.Run("generation failure", func(t *testing.T) {
		llm := &fakeLLM{category: llmservice.CategoryGeneralKnowledge, answerErr: errors.New("rate limited")}
		p := NewPipeline(&fakeEmbedder{vector: []float32{1}}, &fakeStore{}, llm, testRAGConfig())
		_, err := p.Answer(context.Background(), "question?")
		require.Error(t, err)
	})
}
