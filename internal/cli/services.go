package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/snonux/smartdeck/internal/ankiconnect"
	"codeberg.org/snonux/smartdeck/internal/audio"
	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/content"
	"codeberg.org/snonux/smartdeck/internal/image"
	"codeberg.org/snonux/smartdeck/internal/journal"
	"codeberg.org/snonux/smartdeck/internal/media"
	"codeberg.org/snonux/smartdeck/internal/processor"
	"codeberg.org/snonux/smartdeck/internal/reconcile"
	"codeberg.org/snonux/smartdeck/internal/textgen"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

// ErrNoTextProvider is returned when no text generation key is set.
var ErrNoTextProvider = errors.New("no text generation provider configured, set GOOGLE_AI_API_KEY or OPENAI_API_KEY")

// services holds the clients of one invocation.
type services struct {
	settings Settings
	store    *ankiconnect.Client
	deps     processor.Deps
	journal  *journal.Journal
	logger   *slog.Logger
}

// newServices builds every client from settings. Optional capabilities
// that cannot be configured (speech, images, journal) are logged and left
// out; text generation and the note store are required.
func newServices(ctx context.Context, s Settings, logger *slog.Logger) (*services, error) {
	limiter := func(service string) *throttle.Limiter {
		return throttle.New(service, s.Limits[service])
	}

	gen, err := newGenerator(ctx, s, limiter, logger)
	if err != nil {
		return nil, err
	}

	store := ankiconnect.New(ankiconnect.Config{
		URL:     s.Anki.URL,
		Timeout: s.Anki.Timeout,
		Policy:  s.Retry,
		Limiter: limiter(serviceAnki),
		Logger:  logger,
	})

	// One limiter for both accents, they hit the same quota.
	ttsLimiter := limiter(serviceTTS)
	us := newSpeaker(s, audio.AccentUS, s.Audio.USVoice, ttsLimiter, logger)
	uk := newSpeaker(s, audio.AccentUK, s.Audio.UKVoice, ttsLimiter, logger)

	var finder media.ImageFinder
	if searcher := newImageSearcher(s, limiter, logger); searcher != nil {
		opts := image.DefaultDownloadOptions()
		if s.Image.Count > 0 {
			opts.PerPage = s.Image.Count
		}
		finder = image.NewDownloader(searcher, opts, logger)
	}

	svc := &services{
		settings: s,
		store:    store,
		logger:   logger,
		deps: processor.Deps{
			Aggregator: content.New(gen, content.Options{
				Languages:         textgen.LanguagePair{Source: s.Text.SourceLang, Target: s.Text.TargetLang},
				MaxExamples:       s.Text.MaxExamples,
				MaxSynonyms:       s.Text.MaxSynonyms,
				IncompleteRetries: s.Text.IncompleteRetries,
			}, logger),
			Fetcher:    media.New(us, uk, finder, logger),
			Reconciler: reconcile.New(store, logger),
			Store:      store,
			Workers:    s.Workers,
			Logger:     logger,
		},
	}

	if s.JournalPath != "" {
		j, err := journal.Open(s.JournalPath)
		if err != nil {
			logger.Warn("journal disabled", "path", s.JournalPath, "error", err)
		} else {
			svc.journal = j
		}
	}
	return svc, nil
}

func (svc *services) Close() {
	if svc.journal != nil {
		if err := svc.journal.Close(); err != nil {
			svc.logger.Warn("failed to close journal", "error", err)
		}
	}
}

// startRun opens a journal run; nil when the journal is unavailable.
func (svc *services) startRun(ctx context.Context, command string, rc card.RunContext) *journal.Run {
	if svc.journal == nil {
		return nil
	}
	run, err := svc.journal.StartRun(ctx, command, rc)
	if err != nil {
		svc.logger.Warn("journal run not started", "error", err)
		return nil
	}
	return run
}

func newGenerator(ctx context.Context, s Settings, limiter func(string) *throttle.Limiter, logger *slog.Logger) (textgen.Generator, error) {
	provider := s.Text.Provider
	if provider == "" {
		switch {
		case s.Credentials.GoogleAIKey != "":
			provider = "gemini"
		case s.Credentials.OpenAIKey != "":
			provider = "openai"
		default:
			return nil, ErrNoTextProvider
		}
	}

	switch provider {
	case "gemini":
		return textgen.NewGeminiGenerator(ctx, textgen.GeminiConfig{
			APIKey:  s.Credentials.GoogleAIKey,
			Model:   s.Text.GeminiModel,
			BaseURL: s.Text.GeminiBaseURL,
			Policy:  s.Retry,
			Limiter: limiter(serviceGemini),
			Logger:  logger,
		})
	case "openai":
		return textgen.NewOpenAIGenerator(textgen.OpenAIConfig{
			APIKey:  s.Credentials.OpenAIKey,
			Model:   s.Text.OpenAIModel,
			BaseURL: s.Text.OpenAIBaseURL,
			Policy:  s.Retry,
			Limiter: limiter(serviceOpenAI),
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("unknown text provider %q (use gemini or openai)", provider)
	}
}

func newSpeaker(s Settings, accent audio.Accent, voice string, limiter *throttle.Limiter, logger *slog.Logger) audio.Provider {
	cfg := audio.DefaultProviderConfig(accent)
	cfg.Provider = s.Audio.Provider
	cfg.Fallback = s.Audio.Fallback
	cfg.OpenAIKey = s.Credentials.OpenAIKey
	cfg.OpenAIBaseURL = s.Text.OpenAIBaseURL
	if s.Audio.Model != "" {
		cfg.OpenAIModel = s.Audio.Model
	}
	if voice != "" {
		cfg.OpenAIVoice = voice
	}
	if s.Audio.Speed > 0 {
		cfg.OpenAISpeed = s.Audio.Speed
	}
	cfg.Policy = s.Retry
	cfg.Limiter = limiter
	cfg.Logger = logger

	// Without a key the offline voice is the only option.
	if cfg.Provider == "openai" && cfg.OpenAIKey == "" && cfg.Fallback != "" {
		cfg.Provider, cfg.Fallback = cfg.Fallback, ""
	}

	p, err := audio.NewProvider(cfg)
	if err != nil {
		logger.Warn("audio disabled", "accent", string(accent), "error", err)
		return nil
	}
	return p
}

func newImageSearcher(s Settings, limiter func(string) *throttle.Limiter, logger *slog.Logger) image.ImageSearcher {
	provider := s.Image.Provider
	if provider == "google" && (s.Credentials.GoogleSearchKey == "" || s.Credentials.GoogleSearchEngine == "") && s.Credentials.PixabayKey != "" {
		provider = "pixabay"
	}

	var (
		searcher image.ImageSearcher
		err      error
	)
	switch provider {
	case "", "none":
		return nil
	case "google":
		searcher, err = image.NewGoogleClient(image.GoogleConfig{
			APIKey:   s.Credentials.GoogleSearchKey,
			EngineID: s.Credentials.GoogleSearchEngine,
			Policy:   s.Retry,
			Limiter:  limiter(serviceGoogle),
			Logger:   logger,
		})
	case "pixabay":
		searcher, err = image.NewPixabayClient(image.PixabayConfig{
			APIKey:  s.Credentials.PixabayKey,
			Policy:  s.Retry,
			Limiter: limiter(servicePixabay),
			Logger:  logger,
		})
	default:
		err = fmt.Errorf("unknown image provider %q (use google, pixabay or none)", provider)
	}
	if err != nil {
		logger.Warn("image search disabled", "error", err)
		return nil
	}
	return searcher
}
