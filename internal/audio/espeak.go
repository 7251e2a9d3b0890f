package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// ESpeakConfig holds configuration for espeak-ng audio generation
type ESpeakConfig struct {
	Voice     string // Voice variant (e.g., "en-us", "en-gb", "en-gb+f3")
	Speed     int    // Speech speed in words per minute (default: 150)
	Pitch     int    // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude int    // Volume/amplitude, 0 to 200 (default: 100)
	WordGap   int    // Gap between words in 10ms units (default: 0)
}

// ESpeakConfigFor returns the default configuration for an accent
func ESpeakConfigFor(accent Accent) *ESpeakConfig {
	voice := "en-us"
	if accent == AccentUK {
		voice = "en-gb"
	}
	return &ESpeakConfig{
		Voice:     voice,
		Speed:     140,
		Pitch:     50,
		Amplitude: 100,
	}
}

// ESpeak provides an interface to the espeak-ng text-to-speech engine
type ESpeak struct {
	config *ESpeakConfig
	binary string
}

// NewESpeak creates a new ESpeak instance with the given configuration
func NewESpeak(config *ESpeakConfig) (*ESpeak, error) {
	if err := checkESpeakInstalled(); err != nil {
		return nil, err
	}

	if config == nil {
		config = ESpeakConfigFor(AccentUS)
	}

	return &ESpeak{config: config, binary: "espeak-ng"}, nil
}

// args builds the espeak-ng command line writing WAV data to stdout
func (e *ESpeak) args(text string) []string {
	args := []string{
		"-v", e.config.Voice, // Voice selection
		"-s", fmt.Sprintf("%d", e.config.Speed), // Speed
		"-p", fmt.Sprintf("%d", e.config.Pitch), // Pitch
		"-a", fmt.Sprintf("%d", e.config.Amplitude), // Amplitude/volume
	}

	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}

	// "--" keeps words starting with a dash from being read as flags
	return append(args, "--stdout", "--", text)
}

// GenerateWAV returns WAV audio for the given text
func (e *ESpeak) GenerateWAV(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, e.args(text)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("espeak-ng produced no audio")
	}

	return stdout.Bytes(), nil
}

// checkESpeakInstalled verifies that espeak-ng is available on the system
func checkESpeakInstalled() error {
	if _, err := exec.LookPath("espeak-ng"); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}
