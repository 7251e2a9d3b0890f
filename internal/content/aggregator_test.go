package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/testutil"
	"codeberg.org/snonux/smartdeck/internal/textgen"
)

func serendipity() []textgen.Entry {
	return []textgen.Entry{
		{
			Word:      "serendipity",
			USPron:    "/ˌsɛrənˈdɪpɪti/",
			UKPron:    "/ˌserənˈdɪpəti/",
			WordForm:  "n.",
			Frequency: "C1",
			Definitions: []textgen.Sense{
				{EN: "the occurrence of events by chance in a happy way", CN: "意外发现珍奇事物的本领"},
			},
			Synonyms: []string{"chance", "fluke", "luck", "fortune", "happenstance", "accident", "serendipity"},
			Notes:    []string{"coined by Horace Walpole"},
			Examples: []textgen.ExampleSentence{
				{Sentence: "It was pure **serendipity** that we met.", Translation: "我们相遇纯属偶然。"},
				{Sentence: "Science often relies on **serendipity**.", Translation: "科学常依赖机缘。"},
				{Sentence: "A third one.", Translation: "第三个。"},
			},
		},
		{WordForm: "adj.", Definitions: []textgen.Sense{{EN: "serendipitous: found by chance"}}},
	}
}

func TestAggregateMapsEntry(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	gen.Entries["serendipity"] = serendipity()

	rec, err := New(gen, DefaultOptions(), nil).Aggregate(context.Background(), "  serendipity ")
	require.NoError(t, err)

	assert.Equal(t, "serendipity", rec.Word)
	assert.Equal(t, "/ˌsɛrənˈdɪpɪti/", rec.USPronunciation)
	assert.Equal(t, card.PartOfSpeechNoun, rec.PartOfSpeech)
	assert.Equal(t, "C1", rec.CEFR)
	require.Len(t, rec.Definitions, 1)
	assert.Equal(t, "意外发现珍奇事物的本领", rec.Definitions[0].CN)
	assert.Equal(t, []string{"chance", "fluke", "luck", "fortune", "happenstance"}, rec.Synonyms)
	assert.Len(t, rec.Examples, 2)
	assert.Equal(t, []string{"coined by Horace Walpole", "also: adj. serendipitous: found by chance"}, rec.Notes)
	assert.False(t, rec.Incomplete)
	assert.Equal(t, 1, gen.Calls("serendipity"))
}

func TestAggregateRejectsBadWordsWithoutCalling(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	a := New(gen, DefaultOptions(), nil)

	for _, word := range []string{"", "   ", "bad\x00word", "tab\tword"} {
		_, err := a.Aggregate(context.Background(), word)
		require.Error(t, err, "word %q", word)

		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.True(t, svcerr.IsPermanent(err))
	}
	assert.Zero(t, gen.Calls(""))
}

func TestAggregateIncompleteAfterRetry(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	gen.Entries["blank"] = []textgen.Entry{{Word: "blank", Definitions: []textgen.Sense{{EN: "  "}}}}

	rec, err := New(gen, DefaultOptions(), nil).Aggregate(context.Background(), "blank")
	require.NoError(t, err)
	assert.True(t, rec.Incomplete)
	assert.Equal(t, 2, gen.Calls("blank"))
}

func TestAggregateNoRetryWhenDisabled(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	gen.Entries["blank"] = nil

	opts := DefaultOptions()
	opts.IncompleteRetries = 0
	rec, err := New(gen, opts, nil).Aggregate(context.Background(), "blank")
	require.NoError(t, err)
	assert.True(t, rec.Incomplete)
	assert.Equal(t, 1, gen.Calls("blank"))
}

func TestAggregateWrapsGeneratorErrors(t *testing.T) {
	gen := testutil.NewFakeGenerator()
	cause := svcerr.Permanent("gemini", "generate", 401, errors.New("bad key"))
	gen.Errs["apple"] = cause

	_, err := New(gen, DefaultOptions(), nil).Aggregate(context.Background(), "apple")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "apple", genErr.Word)
	assert.ErrorIs(t, err, cause)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, card.PartOfSpeechVerb, parseWordForm("vt., n."))
	assert.Equal(t, card.PartOfSpeechPhrase, parseWordForm("phrasal verb"))
	assert.Equal(t, card.PartOfSpeechUnknown, parseWordForm(""))
	assert.Equal(t, "B2", parseCEFR("b2 (upper intermediate)"))
	assert.Empty(t, parseCEFR("common"))
}
