package textgen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

// OpenAIConfig configures the OpenAI generator.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for tests and compatible endpoints

	Policy  retry.Policy
	Limiter *throttle.Limiter
	Logger  *slog.Logger
}

// OpenAIGenerator implements Generator with chat completions and a strict
// JSON schema response format.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	schema  *jsonschema.Definition
	policy  retry.Policy
	limiter *throttle.Limiter
	logger  *slog.Logger
}

// NewOpenAIGenerator creates an OpenAI backed generator.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	schema, err := jsonschema.GenerateSchemaForType(Response{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate response schema: %w", err)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		schema:  schema,
		policy:  cfg.Policy,
		limiter: cfg.Limiter,
		logger:  cfg.Logger.With("component", "openai-text"),
	}, nil
}

// Name returns the provider name.
func (g *OpenAIGenerator) Name() string {
	return "openai"
}

// Generate asks the chat model for the entries of req.Word.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) ([]Entry, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a lexicographer writing learner's dictionary entries.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "dictionary_entries",
				Schema: g.schema,
				Strict: true,
			},
		},
		Temperature: 0.3,
	}

	policy := g.policy.WithNotify(func(err error, wait time.Duration) {
		g.logger.Warn("retrying text generation", "word", req.Word, "wait", wait, "error", err)
	})

	return retry.DoValue(ctx, policy, func(ctx context.Context) ([]Entry, error) {
		var content string
		err := g.limiter.Do(ctx, func(ctx context.Context) error {
			resp, err := g.client.CreateChatCompletion(ctx, chatReq)
			if err != nil {
				return svcerr.FromOpenAI("openai", "chat", err)
			}
			if len(resp.Choices) == 0 {
				return svcerr.Permanent("openai", "chat", 0, errEmptyResponse)
			}
			content = resp.Choices[0].Message.Content
			return nil
		})
		if err != nil {
			return nil, err
		}

		entries, err := ParseResponse(content)
		if err != nil {
			return nil, svcerr.Permanent("openai", "chat", 0, err)
		}
		return entries, nil
	})
}
