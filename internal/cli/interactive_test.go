package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompter_Word(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"word", "apple\n", "apple", true},
		{"phrase is collapsed", "  give   up \n", "give up", true},
		{"empty line ends", "\napple\n", "", false},
		{"whitespace ends", "   \n", "", false},
		{"end of input", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, ok := p.Word()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, strings.HasPrefix(out.String(), "Word: "), out.String())
		})
	}
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"no\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"maybe\n", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(tt.input), &out)
		assert.Equal(t, tt.want, p.Confirm("Include images?", tt.def), "input %q default %v", tt.input, tt.def)
	}
}

func TestPrompter_Hint(t *testing.T) {
	var out bytes.Buffer
	NewPrompter(strings.NewReader("\n"), &out).Confirm("Include images?", true)
	assert.Contains(t, out.String(), "Include images? [Y/n]")
}
