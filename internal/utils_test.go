package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"serendipity":  "serendipity",
		"give up":      "give_up",
		"rock'n'roll":  "rock_n_roll",
		"naïve":        "naïve",
		"../etc/pass":  "___etc_pass",
		"well-being_2": "well-being_2",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestMediaFilename(t *testing.T) {
	a := MediaFilename("serendipity_us.mp3", []byte("one"))
	b := MediaFilename("serendipity_us.mp3", []byte("two"))

	assert.Regexp(t, `^smartdeck_serendipity_us_.*\.mp3$`, a)
	assert.NotEqual(t, a, b, "different data must yield different filenames")
	assert.Equal(t, a, MediaFilename("serendipity_us.mp3", []byte("one")), "same data must yield the same filename")
	assert.Regexp(t, `\.bin$`, MediaFilename("noext", []byte("x")))
}
