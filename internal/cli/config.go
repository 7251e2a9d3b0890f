package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// credentialEnv maps config keys to the conventional environment
// variables of each service, checked after the SMARTDECK_ variant.
var credentialEnv = map[string]string{
	"credentials.google_ai_key":     "GOOGLE_AI_API_KEY",
	"credentials.openai_key":        "OPENAI_API_KEY",
	"credentials.google_search_key": "GOOGLE_CUSTOM_SEARCH_KEY",
	"credentials.google_search_cx":  "GOOGLE_SEARCH_ENGINE_ID",
	"credentials.pixabay_key":       "PIXABAY_API_KEY",
	"anki.url":                      "ANKI_CONNECT_URL",
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	setDefaults()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".smartdeck" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".smartdeck")
	}

	// Environment variables
	viper.SetEnvPrefix("SMARTDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindCredentialEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
	}
}

func bindCredentialEnv() {
	for key, env := range credentialEnv {
		prefixed := "SMARTDECK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = viper.BindEnv(key, prefixed, env)
	}
}

func setDefaults() {
	home, _ := os.UserHomeDir()

	viper.SetDefault("anki.url", "http://localhost:8765")
	viper.SetDefault("anki.deck", "English::AI Words")
	viper.SetDefault("anki.model", "AI Word (R)")
	viper.SetDefault("anki.timeout", 30*time.Second)

	viper.SetDefault("text.provider", "")
	viper.SetDefault("text.gemini_model", "gemini-2.5-flash")
	viper.SetDefault("text.openai_model", "gpt-4o-mini")
	viper.SetDefault("text.max_examples", 2)
	viper.SetDefault("text.max_synonyms", 5)
	viper.SetDefault("text.incomplete_retries", 1)
	viper.SetDefault("text.source_lang", "American English")
	viper.SetDefault("text.target_lang", "Simplified Chinese")

	viper.SetDefault("audio.provider", "openai")
	viper.SetDefault("audio.fallback", "espeak")
	viper.SetDefault("audio.model", "gpt-4o-mini-tts")
	viper.SetDefault("audio.us_voice", "alloy")
	viper.SetDefault("audio.uk_voice", "fable")
	viper.SetDefault("audio.speed", 1.0)

	viper.SetDefault("image.provider", "google")
	viper.SetDefault("image.count", 10)

	viper.SetDefault("retry.max_attempts", 3)
	viper.SetDefault("retry.base_delay", time.Second)
	viper.SetDefault("retry.max_delay", 8*time.Second)
	viper.SetDefault("retry.jitter", 0.2)

	for service, limit := range defaultLimits {
		viper.SetDefault("limits."+service+".max_in_flight", limit.MaxInFlight)
		viper.SetDefault("limits."+service+".per_minute", limit.RequestsPerMinute)
	}

	viper.SetDefault("run.workers", 1)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("journal.path", filepath.Join(home, ".local", "state", "smartdeck", "journal.db"))
}
