package models

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrNoKeys is returned when neither provider has an API key.
var ErrNoKeys = errors.New("no API key configured, set GOOGLE_AI_API_KEY or OPENAI_API_KEY")

// Config selects the providers to query. A provider without key is
// skipped.
type Config struct {
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiBaseURL string
}

// Lister handles listing available models
type Lister struct {
	cfg Config
}

// NewLister creates a new model lister
func NewLister(cfg Config) *Lister {
	return &Lister{cfg: cfg}
}

// Catalog is the categorized result of a listing.
type Catalog struct {
	Gemini     []string
	OpenAIChat []string
	OpenAITTS  []string
}

// Fetch queries every configured provider.
func (l *Lister) Fetch(ctx context.Context) (*Catalog, error) {
	if l.cfg.OpenAIKey == "" && l.cfg.GeminiKey == "" {
		return nil, ErrNoKeys
	}

	var c Catalog
	if l.cfg.GeminiKey != "" {
		models, err := l.geminiModels(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list Gemini models: %w", err)
		}
		c.Gemini = models
	}
	if l.cfg.OpenAIKey != "" {
		chat, tts, err := l.openAIModels(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list OpenAI models: %w", err)
		}
		c.OpenAIChat, c.OpenAITTS = chat, tts
	}
	return &c, nil
}

func (l *Lister) geminiModels(ctx context.Context) ([]string, error) {
	cc := &genai.ClientConfig{APIKey: l.cfg.GeminiKey, Backend: genai.BackendGeminiAPI}
	if l.cfg.GeminiBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: l.cfg.GeminiBaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	var names []string
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		name := strings.TrimPrefix(m.Name, "models/")
		if strings.HasPrefix(name, "gemini") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (l *Lister) openAIModels(ctx context.Context) (chat, tts []string, err error) {
	config := openai.DefaultConfig(l.cfg.OpenAIKey)
	if l.cfg.OpenAIBaseURL != "" {
		config.BaseURL = l.cfg.OpenAIBaseURL
	}
	models, err := openai.NewClientWithConfig(config).ListModels(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, model := range models.Models {
		modelID := model.ID
		switch {
		case strings.Contains(modelID, "tts"):
			tts = append(tts, modelID)
		case strings.Contains(modelID, "audio"), strings.Contains(modelID, "realtime"),
			strings.Contains(modelID, "embedding"), strings.Contains(modelID, "dall-e"):
			// not usable for card generation
		case strings.HasPrefix(modelID, "gpt") || reasoningModel(modelID):
			chat = append(chat, modelID)
		}
	}
	sort.Strings(chat)
	sort.Strings(tts)
	return chat, tts, nil
}

// reasoningModel matches the o1, o3, o4-mini... family.
func reasoningModel(id string) bool {
	return len(id) > 1 && id[0] == 'o' && id[1] >= '0' && id[1] <= '9'
}

// ListAvailableModels writes the catalog to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	c, err := l.Fetch(ctx)
	if err != nil {
		return err
	}

	section := func(title string, enabled bool, models []string) {
		fmt.Fprintf(w, "\n%s:\n", title)
		switch {
		case !enabled:
			fmt.Fprintln(w, "  (no API key)")
		case len(models) == 0:
			fmt.Fprintln(w, "  none found")
		default:
			for _, m := range models {
				fmt.Fprintf(w, "  %s\n", m)
			}
		}
	}

	fmt.Fprintln(w, "Available models:")
	section("Gemini text generation (textgen.provider=gemini)", l.cfg.GeminiKey != "", c.Gemini)
	section("OpenAI text generation (textgen.provider=openai)", l.cfg.OpenAIKey != "", c.OpenAIChat)
	section("OpenAI text-to-speech (tts.model)", l.cfg.OpenAIKey != "", c.OpenAITTS)
	return nil
}
