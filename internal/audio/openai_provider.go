package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/smartdeck/internal"
	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client  *openai.Client
	config  *Config
	policy  retry.Policy
	limiter *throttle.Limiter
	logger  *slog.Logger
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientCfg.BaseURL = config.OpenAIBaseURL
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientCfg),
		config:  config,
		policy:  config.Policy,
		limiter: config.Limiter,
		logger:  logger.With("component", "openai-tts", "accent", string(config.Accent)),
	}, nil
}

// Synthesize generates audio using OpenAI TTS
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string) (*card.Media, error) {
	if err := ValidateText(text); err != nil {
		return nil, svcerr.Permanent(p.Name(), "speech", 0, err)
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          preprocessText(text),
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	// Instructions only work with the gpt-4o models
	if p.config.OpenAIInstruction != "" && strings.HasPrefix(p.config.OpenAIModel, "gpt-4o") {
		req.Instructions = p.config.OpenAIInstruction
	}

	p.logger.Debug("requesting speech", "model", p.config.OpenAIModel, "voice", p.config.OpenAIVoice, "input", req.Input)

	policy := p.policy.WithNotify(func(err error, wait time.Duration) {
		p.logger.Warn("retrying speech synthesis", "text", text, "wait", wait, "error", err)
	})

	data, err := retry.DoValue(ctx, policy, func(ctx context.Context) ([]byte, error) {
		var data []byte
		err := p.limiter.Do(ctx, func(ctx context.Context) error {
			response, err := p.client.CreateSpeech(ctx, req)
			if err != nil {
				return svcerr.FromOpenAI(p.Name(), "speech", err)
			}
			defer response.Close()

			data, err = io.ReadAll(response)
			if err != nil {
				return svcerr.Transient(p.Name(), "speech", 0, fmt.Errorf("failed to read audio data: %w", err))
			}
			return nil
		})
		return data, err
	})
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, svcerr.Permanent(p.Name(), "speech", 0, fmt.Errorf("no audio data received from OpenAI"))
	}

	return &card.Media{
		Filename:    fmt.Sprintf("%s_%s.mp3", internal.SanitizeFilename(text), p.config.Accent),
		ContentType: "audio/mpeg",
		Data:        data,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai-tts"
}

// IsAvailable checks if the OpenAI API is accessible
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}

	// A test call would use credits, a key is all we check
	return nil
}

// preprocessText strips punctuation that should not be spoken
func preprocessText(text string) string {
	cleanedText := strings.TrimSpace(text)

	punctuationToRemove := []string{"!", "?", ".", ",", ";", ":", "\"", "(", ")", "[", "]", "{", "}", "—", "–", "*"}
	for _, punct := range punctuationToRemove {
		cleanedText = strings.ReplaceAll(cleanedText, punct, "")
	}

	return strings.TrimSpace(cleanedText)
}
