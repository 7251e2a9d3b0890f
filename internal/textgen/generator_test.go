package textgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serendipityJSON = `{"entries":[{"word":"serendipity","us_pron":"/ˌsɛrənˈdɪpɪti/","uk_pron":"/ˌsɛrənˈdɪpɪti/","word_form":"n.","frequency":"C1","definitions":[{"en":"the occurrence of events by chance in a happy way","cn":"意外发现珍奇事物的本领"}],"synonyms":["chance","fluke"],"notes":[],"examples":[{"sentence":"It was pure **serendipity** that we met.","translation":"我们相遇纯属偶然。"}]}]}`

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "wrapped object", input: serendipityJSON, want: 1},
		{name: "bare array", input: `[{"word":"run","definitions":[{"en":"move fast","cn":"跑"}]},{"word":"run","word_form":"n."}]`, want: 2},
		{name: "single entry", input: `{"word":"run","definitions":[]}`, want: 1},
		{name: "markdown fence", input: "```json\n" + serendipityJSON + "\n```", want: 1},
		{name: "empty object", input: `{}`, want: 0},
		{name: "empty", input: "   ", wantErr: true},
		{name: "prose", input: "Sorry, I cannot help", wantErr: true},
		{name: "truncated", input: `{"entries":[{"word":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseResponseFields(t *testing.T) {
	entries, err := ParseResponse(serendipityJSON)
	require.NoError(t, err)
	e := entries[0]
	assert.Equal(t, "serendipity", e.Word)
	assert.Equal(t, "n.", e.WordForm)
	assert.Equal(t, "C1", e.Frequency)
	assert.Equal(t, "the occurrence of events by chance in a happy way", e.Definitions[0].EN)
	assert.Equal(t, []string{"chance", "fluke"}, e.Synonyms)
	assert.Equal(t, "我们相遇纯属偶然。", e.Examples[0].Translation)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{Word: "colour", MaxExamples: 3, MaxSynonyms: 4})
	assert.Contains(t, p, `"colour"`)
	assert.Contains(t, p, "American English")
	assert.Contains(t, p, "Simplified Chinese")
	assert.Contains(t, p, "At most 3 example sentences")
	assert.Contains(t, p, "At most 4 synonyms")

	custom := BuildPrompt(Request{Word: "lift", Languages: LanguagePair{Source: "British English", Target: "German"}})
	assert.Contains(t, custom, "British English")
	assert.Contains(t, custom, "German translation")
	assert.True(t, strings.Contains(custom, "At most 2 example"), "defaults apply")
}
