package audio

import (
	"context"
	"fmt"

	"codeberg.org/snonux/smartdeck/internal"
	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
)

// ESpeakProvider implements Provider interface for espeak-ng. It is the
// offline fallback when the TTS API is unavailable.
type ESpeakProvider struct {
	espeak *ESpeak
}

// NewESpeakProvider creates a new espeak-ng provider
func NewESpeakProvider(config *ESpeakConfig) (Provider, error) {
	espeak, err := NewESpeak(config)
	if err != nil {
		return nil, err
	}

	return &ESpeakProvider{espeak: espeak}, nil
}

// Synthesize generates WAV audio using espeak-ng
func (p *ESpeakProvider) Synthesize(ctx context.Context, text string) (*card.Media, error) {
	if err := ValidateText(text); err != nil {
		return nil, svcerr.Permanent(p.Name(), "speech", 0, err)
	}

	data, err := p.espeak.GenerateWAV(ctx, text)
	if err != nil {
		return nil, svcerr.Permanent(p.Name(), "speech", 0, err)
	}

	return &card.Media{
		Filename:    fmt.Sprintf("%s_%s.wav", internal.SanitizeFilename(text), voiceAccent(p.espeak.config.Voice)),
		ContentType: "audio/wav",
		Data:        data,
	}, nil
}

// Name returns the provider name
func (p *ESpeakProvider) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (p *ESpeakProvider) IsAvailable() error {
	return checkESpeakInstalled()
}

func voiceAccent(voice string) Accent {
	if len(voice) >= 5 && voice[:5] == "en-gb" {
		return AccentUK
	}
	return AccentUS
}
