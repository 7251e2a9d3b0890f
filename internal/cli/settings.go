package cli

import (
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/smartdeck/internal/retry"
	"codeberg.org/snonux/smartdeck/internal/throttle"
)

// Services with their own request limiter.
const (
	serviceGemini  = "gemini"
	serviceOpenAI  = "openai"
	serviceTTS     = "tts"
	serviceGoogle  = "google"
	servicePixabay = "pixabay"
	serviceAnki    = "anki"
)

var defaultLimits = map[string]throttle.Config{
	serviceGemini:  {MaxInFlight: 4, RequestsPerMinute: 60},
	serviceOpenAI:  {MaxInFlight: 4, RequestsPerMinute: 500},
	serviceTTS:     {MaxInFlight: 4, RequestsPerMinute: 500},
	serviceGoogle:  {MaxInFlight: 2, RequestsPerMinute: 100},
	servicePixabay: {MaxInFlight: 2, RequestsPerMinute: 100},
	serviceAnki:    {MaxInFlight: 4},
}

// Settings is the typed view of the configuration.
type Settings struct {
	Anki        AnkiSettings
	Text        TextSettings
	Audio       AudioSettings
	Image       ImageSettings
	Retry       retry.Policy
	Limits      map[string]throttle.Config
	Workers     int
	LogLevel    string
	LogFormat   string
	JournalPath string
	Credentials Credentials
}

type AnkiSettings struct {
	URL     string
	Deck    string
	Model   string
	Timeout time.Duration
}

type TextSettings struct {
	Provider          string
	GeminiModel       string
	GeminiBaseURL     string
	OpenAIModel       string
	OpenAIBaseURL     string
	MaxExamples       int
	MaxSynonyms       int
	IncompleteRetries int
	SourceLang        string
	TargetLang        string
}

type AudioSettings struct {
	Provider string
	Fallback string
	Model    string
	USVoice  string
	UKVoice  string
	Speed    float64
}

type ImageSettings struct {
	Provider string
	Count    int
}

// Credentials are only read here and handed to the clients.
type Credentials struct {
	GoogleAIKey        string
	OpenAIKey          string
	GoogleSearchKey    string
	GoogleSearchEngine string
	PixabayKey         string
}

// LoadSettings collects the settings from viper. InitConfig must have run.
func LoadSettings() Settings {
	s := Settings{
		Anki: AnkiSettings{
			URL:     viper.GetString("anki.url"),
			Deck:    viper.GetString("anki.deck"),
			Model:   viper.GetString("anki.model"),
			Timeout: viper.GetDuration("anki.timeout"),
		},
		Text: TextSettings{
			Provider:          viper.GetString("text.provider"),
			GeminiModel:       viper.GetString("text.gemini_model"),
			GeminiBaseURL:     viper.GetString("text.gemini_base_url"),
			OpenAIModel:       viper.GetString("text.openai_model"),
			OpenAIBaseURL:     viper.GetString("text.openai_base_url"),
			MaxExamples:       viper.GetInt("text.max_examples"),
			MaxSynonyms:       viper.GetInt("text.max_synonyms"),
			IncompleteRetries: viper.GetInt("text.incomplete_retries"),
			SourceLang:        viper.GetString("text.source_lang"),
			TargetLang:        viper.GetString("text.target_lang"),
		},
		Audio: AudioSettings{
			Provider: viper.GetString("audio.provider"),
			Fallback: viper.GetString("audio.fallback"),
			Model:    viper.GetString("audio.model"),
			USVoice:  viper.GetString("audio.us_voice"),
			UKVoice:  viper.GetString("audio.uk_voice"),
			Speed:    viper.GetFloat64("audio.speed"),
		},
		Image: ImageSettings{
			Provider: viper.GetString("image.provider"),
			Count:    viper.GetInt("image.count"),
		},
		Retry: retry.Policy{
			MaxAttempts: viper.GetInt("retry.max_attempts"),
			BaseDelay:   viper.GetDuration("retry.base_delay"),
			MaxDelay:    viper.GetDuration("retry.max_delay"),
			Jitter:      viper.GetFloat64("retry.jitter"),
		},
		Limits:      make(map[string]throttle.Config, len(defaultLimits)),
		Workers:     viper.GetInt("run.workers"),
		LogLevel:    viper.GetString("log.level"),
		LogFormat:   viper.GetString("log.format"),
		JournalPath: viper.GetString("journal.path"),
		Credentials: Credentials{
			GoogleAIKey:        viper.GetString("credentials.google_ai_key"),
			OpenAIKey:          viper.GetString("credentials.openai_key"),
			GoogleSearchKey:    viper.GetString("credentials.google_search_key"),
			GoogleSearchEngine: viper.GetString("credentials.google_search_cx"),
			PixabayKey:         viper.GetString("credentials.pixabay_key"),
		},
	}

	for service := range defaultLimits {
		s.Limits[service] = throttle.Config{
			MaxInFlight:       viper.GetInt("limits." + service + ".max_in_flight"),
			RequestsPerMinute: viper.GetInt("limits." + service + ".per_minute"),
		}
	}
	return s
}
