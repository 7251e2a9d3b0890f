package audio

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

// Accent selects the pronunciation variant to synthesize.
type Accent string

const (
	AccentUS Accent = "us"
	AccentUK Accent = "uk"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Synthesize returns the spoken text as an in-memory audio artifact
	Synthesize(ctx context.Context, text string) (*card.Media, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds the configuration of one accent's provider chain
type Config struct {
	Provider string // Provider name: "openai" or "espeak"
	Fallback string // Fallback provider name: "espeak" or "" for none
	Accent   Accent

	// OpenAI-specific settings
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAIVoice       string  // "alloy", "ash", "ballad", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer", "verse"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts model

	Policy  retry.Policy
	Limiter *throttle.Limiter
	Logger  *slog.Logger
}

// DefaultProviderConfig returns the default configuration for an accent
func DefaultProviderConfig(accent Accent) *Config {
	cfg := &Config{
		Provider:    "openai",
		Fallback:    "espeak",
		Accent:      accent,
		OpenAIModel: "gpt-4o-mini-tts", // New model with voice instructions support
		OpenAISpeed: 1.0,
		Policy:      retry.DefaultPolicy(),
	}
	switch accent {
	case AccentUK:
		cfg.OpenAIVoice = "fable"
		cfg.OpenAIInstruction = "Speak with a standard British English (Received Pronunciation) accent. Pronounce the word slowly and clearly for language learners."
	default:
		cfg.OpenAIVoice = "alloy"
		cfg.OpenAIInstruction = "Speak with a General American English accent. Pronounce the word slowly and clearly for language learners."
	}
	return cfg
}

// NewProvider creates the provider chain described by config
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig(AccentUS)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	primary, err := newSingleProvider(config.Provider, config)
	if err != nil {
		return nil, err
	}
	if config.Fallback == "" || config.Fallback == config.Provider {
		return primary, nil
	}

	fallback, err := newSingleProvider(config.Fallback, config)
	if err != nil {
		config.Logger.Warn("audio fallback disabled", "fallback", config.Fallback, "error", err)
		return primary, nil
	}
	return NewProviderWithFallback(primary, fallback, config.Logger), nil
}

func newSingleProvider(name string, config *Config) (Provider, error) {
	switch name {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)
	case "espeak":
		return NewESpeakProvider(ESpeakConfigFor(config.Accent))
	default:
		return nil, fmt.Errorf("unknown audio provider: %s", name)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
	logger   *slog.Logger
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Synthesize tries the primary provider first, falls back to secondary on error
func (p *ProviderWithFallback) Synthesize(ctx context.Context, text string) (*card.Media, error) {
	media, err := p.primary.Synthesize(ctx, text)
	if err == nil {
		return media, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	p.logger.Warn("primary audio provider failed, falling back",
		"primary", p.primary.Name(), "fallback", p.fallback.Name(), "error", err)

	media, fbErr := p.fallback.Synthesize(ctx, text)
	if fbErr != nil {
		return nil, fmt.Errorf("%s: %w (fallback %s: %v)", p.primary.Name(), err, p.fallback.Name(), fbErr)
	}
	return media, nil
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
