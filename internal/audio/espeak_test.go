package audio

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestESpeakConfigFor(t *testing.T) {
	assert.Equal(t, "en-us", ESpeakConfigFor(AccentUS).Voice)
	assert.Equal(t, "en-gb", ESpeakConfigFor(AccentUK).Voice)
	assert.Equal(t, 140, ESpeakConfigFor(AccentUS).Speed)
}

func TestESpeakArgs(t *testing.T) {
	e := &ESpeak{config: &ESpeakConfig{Voice: "en-gb", Speed: 140, Pitch: 50, Amplitude: 100, WordGap: 2}}

	want := []string{"-v", "en-gb", "-s", "140", "-p", "50", "-a", "100", "-g", "2", "--stdout", "--", "-ish"}
	assert.Equal(t, want, e.args("-ish"))
}

func TestVoiceAccent(t *testing.T) {
	assert.Equal(t, AccentUK, voiceAccent("en-gb+f3"))
	assert.Equal(t, AccentUS, voiceAccent("en-us"))
}

func TestNewESpeak(t *testing.T) {
	// This test will fail if espeak-ng is not installed
	// We'll skip it in that case
	espeak, err := NewESpeak(nil)
	if err != nil {
		if checkESpeakInstalled() != nil {
			t.Skip("espeak-ng not installed, skipping test")
		}
		require.NoError(t, err)
	}

	assert.NotNil(t, espeak.config)
}

func TestGenerateWAV_InvalidInput(t *testing.T) {
	e := &ESpeak{config: ESpeakConfigFor(AccentUS), binary: "espeak-ng"}

	_, err := e.GenerateWAV(context.Background(), "")
	assert.Error(t, err, "empty text")
}

func TestGenerateWAV_Integration(t *testing.T) {
	if checkESpeakInstalled() != nil {
		t.Skip("espeak-ng not installed, skipping integration test")
	}

	provider, err := NewESpeakProvider(ESpeakConfigFor(AccentUK))
	require.NoError(t, err)

	media, err := provider.Synthesize(context.Background(), "serendipity")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(media.Data, []byte("RIFF")), "expected WAV data")
	assert.Equal(t, "serendipity_uk.wav", media.Filename)
}
