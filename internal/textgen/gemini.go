package textgen

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for tests and proxies

	HTTPClient *http.Client
	Policy     retry.Policy
	Limiter    *throttle.Limiter
	Logger     *slog.Logger
}

// GeminiGenerator implements Generator on top of the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	policy  retry.Policy
	limiter *throttle.Limiter
	logger  *slog.Logger
}

// NewGeminiGenerator creates a Gemini backed generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Google AI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   cfg.Model,
		policy:  cfg.Policy,
		limiter: cfg.Limiter,
		logger:  cfg.Logger.With("component", "gemini"),
	}, nil
}

// Name returns the provider name.
func (g *GeminiGenerator) Name() string {
	return "gemini"
}

// Generate asks Gemini for the entries of req.Word.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) ([]Entry, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiResponseSchema(),
	}
	prompt := BuildPrompt(req)

	policy := g.policy.WithNotify(func(err error, wait time.Duration) {
		g.logger.Warn("retrying text generation", "word", req.Word, "wait", wait, "error", err)
	})

	return retry.DoValue(ctx, policy, func(ctx context.Context) ([]Entry, error) {
		var text string
		err := g.limiter.Do(ctx, func(ctx context.Context) error {
			resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
			if err != nil {
				return svcerr.FromGenAI("gemini", "generate", err)
			}
			text = resp.Text()
			return nil
		})
		if err != nil {
			return nil, err
		}

		entries, err := ParseResponse(text)
		if err != nil {
			return nil, svcerr.Permanent("gemini", "generate", 0, err)
		}
		g.logger.Debug("generated entries", "word", req.Word, "entries", len(entries))
		return entries, nil
	})
}

func geminiResponseSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	strList := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: str("")}
	}

	entry := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"word":      str("The word form described"),
			"us_pron":   str("American IPA transcription"),
			"uk_pron":   str("British IPA transcription"),
			"word_form": str("Part of speech abbreviation such as n., vt., vi., adj."),
			"frequency": {Type: genai.TypeString, Enum: []string{"A1", "A2", "B1", "B2", "C1", "C2"}},
			"definitions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"en": str("English definition"),
						"cn": str("Translated definition"),
					},
					Required: []string{"en", "cn"},
				},
			},
			"synonyms": strList("Synonyms"),
			"notes":    strList("Usage notes including British variants"),
			"examples": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"sentence":    str("Example sentence"),
						"translation": str("Translated sentence"),
					},
					Required: []string{"sentence", "translation"},
				},
			},
		},
		Required:         []string{"word", "us_pron", "uk_pron", "word_form", "definitions"},
		PropertyOrdering: []string{"word", "us_pron", "uk_pron", "word_form", "frequency", "definitions", "synonyms", "notes", "examples"},
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{"entries": {Type: genai.TypeArray, Items: entry}},
		Required:   []string{"entries"},
	}
}
