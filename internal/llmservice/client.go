package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"docqa/internal/config"
	"docqa/internal/helper"
	"docqa/internal/models"
)

// ErrGenerationFailed indicates the chat-completion call errored or
// returned no choices.
var ErrGenerationFailed = errors.New("failed to generate completion")

const (
	answerTemperature = 0.7
	answerMaxTokens   = 500

	classifyTemperature = 0.0
	classifyMaxTokens   = 50

	retryAttempts = 3
	retryBackoff  = time.Second
)

// Client wraps the chat-completion model used for classification and answer
// generation. Constructed once at startup and shared by the pipelines.
type Client struct {
	llm *openai.LLM
}

func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithModel(cfg.InferenceModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing LLM client: %w", err)
	}
	return &Client{llm: llm}, nil
}

// GenerateAnswer produces an answer for the question, grounded in the given
// context when one is supplied.
func (c *Client) GenerateAnswer(ctx context.Context, question, docContext string) (string, error) {
	prompt := fmt.Sprintf(models.AnswerPromptTemplate, docContext, question)
	return c.generate(ctx, models.AnswerSystemPrompt, prompt, answerTemperature, answerMaxTokens)
}

// Classify asks the model whether the question is general knowledge or
// requires document context. The context sample is truncated to
// ClassifierContextLimit bytes.
func (c *Client) Classify(ctx context.Context, question, contextSample string) (Category, error) {
	if len(contextSample) > models.ClassifierContextLimit {
		contextSample = contextSample[:models.ClassifierContextLimit]
	}
	prompt := fmt.Sprintf(models.ClassifyPromptTemplate, contextSample, question)

	label, err := c.generate(ctx, models.ClassifySystemPrompt, prompt, classifyTemperature, classifyMaxTokens)
	if err != nil {
		return "", err
	}
	category := ParseCategory(label)
	log.Debug().Str("label", label).Str("category", string(category)).Msg("classified question")
	return category, nil
}

func (c *Client) generate(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}

	var res *llms.ContentResponse
	err := helper.Retry(ctx, retryAttempts, retryBackoff, func() error {
		var err error
		res, err = c.llm.GenerateContent(ctx, messages,
			llms.WithTemperature(temperature),
			llms.WithMaxTokens(maxTokens),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGenerationFailed)
	}
	return strings.TrimSpace(res.Choices[0].Content), nil
}
