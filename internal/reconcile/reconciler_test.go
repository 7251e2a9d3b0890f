package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/testutil"
)

func runContext(force bool) card.RunContext {
	return card.NewRunContext("", "", nil, true, force)
}

func record(word string) card.Record {
	return card.Record{
		Word:            word,
		USPronunciation: "/ˈæpəl/",
		PartOfSpeech:    card.PartOfSpeechNoun,
		Definitions:     []card.Definition{{EN: "a round fruit", CN: "苹果"}},
		Synonyms:        []string{"pome"},
		Examples:        []card.Example{{Sentence: "An **apple** a day.", Translation: "一天一苹果。"}},
		USAudio:         &card.Media{Filename: word + "_us.mp3", Data: testutil.MP3Data},
		Tags:            []string{card.DefaultTag},
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		matches []int64
		force   bool
		want    Action
	}{
		{nil, false, ActionCreate},
		{nil, true, ActionCreate},
		{[]int64{1}, false, ActionSkip},
		{[]int64{1}, true, ActionUpdate},
		{[]int64{1, 2}, false, ActionFail},
		{[]int64{1, 2}, true, ActionFail},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decide(tt.matches, tt.force), "matches=%v force=%v", tt.matches, tt.force)
	}
}

func TestCreateThenSkip(t *testing.T) {
	rc := runContext(false)
	store := testutil.NewFakeStore(rc.Deck, rc.Model)
	r := New(store, nil)

	first := r.Reconcile(context.Background(), rc, record("apple"))
	require.Equal(t, card.Created, first.Kind, first.Reason)

	note, ok := store.Note(first.NoteID)
	require.True(t, ok)
	assert.Equal(t, "apple", note.Fields[FieldWord])
	assert.Equal(t, "a round fruit", note.Fields[FieldDefinitionEN])
	assert.Contains(t, note.Fields[FieldExamples], "<b>apple</b>")
	assert.True(t, strings.HasPrefix(note.Fields[FieldUSAudio], "[sound:smartdeck_apple_us_"))
	assert.Empty(t, note.Fields[FieldImages])
	assert.Equal(t, []string{card.DefaultTag}, note.Tags)

	writes := store.Writes()
	second := r.Reconcile(context.Background(), rc, record("Apple"))
	assert.Equal(t, card.Skipped, second.Kind)
	assert.Equal(t, first.NoteID, second.NoteID)
	assert.Equal(t, writes, store.Writes(), "skip must not write")
	assert.Equal(t, 1, store.NoteCount())
}

func TestCreateThenSkip_Punctuation(t *testing.T) {
	tests := []struct {
		word   string
		stored string
	}{
		{"don't", "don't"},
		{"o'clock", "o'clock"},
		{`say "hi"`, `say "hi"`},
		{"rock & roll", "rock &amp; roll"},
	}

	rc := runContext(false)
	store := testutil.NewFakeStore(rc.Deck, rc.Model)
	r := New(store, nil)

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			first := r.Reconcile(context.Background(), rc, record(tt.word))
			require.Equal(t, card.Created, first.Kind, first.Reason)

			note, ok := store.Note(first.NoteID)
			require.True(t, ok)
			assert.Equal(t, tt.stored, note.Fields[FieldWord])

			second := r.Reconcile(context.Background(), rc, record(tt.word))
			assert.Equal(t, card.Skipped, second.Kind, second.Reason)
			assert.Equal(t, first.NoteID, second.NoteID)
		})
	}
	assert.Equal(t, len(tests), store.NoteCount())
}

func TestForceUpdateKeepsIDAndEnrichments(t *testing.T) {
	rc := runContext(true)
	store := testutil.NewFakeStore(rc.Deck, rc.Model)
	id := store.Seed(rc.Deck, rc.Model, map[string]string{
		FieldWord:            "<b>apple</b>",
		FieldUKPronunciation: "/ˈæp.əl/",
		FieldImages:          `<img src="old.jpg">`,
		FieldSynonyms:        "old synonym",
		FieldUserNotes:       "my own note",
	})

	rec := record("apple")
	rec.Synonyms = nil
	rec.Tags = append(rec.Tags, "fruit")

	out := New(store, nil).Reconcile(context.Background(), rc, rec)
	require.Equal(t, card.Updated, out.Kind, out.Reason)
	assert.Equal(t, id, out.NoteID)

	note, _ := store.Note(id)
	assert.Equal(t, "apple", note.Fields[FieldWord])
	assert.Empty(t, note.Fields[FieldSynonyms], "text fields are rewritten")
	assert.Equal(t, "/ˈæp.əl/", note.Fields[FieldUKPronunciation], "absent enrichment keeps old value")
	assert.Equal(t, `<img src="old.jpg">`, note.Fields[FieldImages])
	assert.Equal(t, "my own note", note.Fields[FieldUserNotes])
	assert.Equal(t, "/ˈæpəl/", note.Fields[FieldUSPronunciation])
	assert.ElementsMatch(t, []string{card.DefaultTag, "fruit"}, note.Tags)
}

func TestAmbiguousMatchesFail(t *testing.T) {
	rc := runContext(true)
	store := testutil.NewFakeStore(rc.Deck, rc.Model)
	store.Seed(rc.Deck, rc.Model, map[string]string{FieldWord: "apple"})
	store.Seed(rc.Deck, rc.Model, map[string]string{FieldWord: "APPLE"})

	out := New(store, nil).Reconcile(context.Background(), rc, record("apple"))
	assert.Equal(t, card.Failed, out.Kind)

	var recErr *svcerr.ReconciliationError
	require.ErrorAs(t, out.Err, &recErr)
	assert.Len(t, recErr.Matches, 2)
	assert.Zero(t, store.Writes())
}

func TestOtherDeckIsIgnored(t *testing.T) {
	rc := runContext(false)
	store := testutil.NewFakeStore(rc.Deck, rc.Model)
	store.Seed("Other", rc.Model, map[string]string{FieldWord: "apple"})

	out := New(store, nil).Reconcile(context.Background(), rc, record("apple"))
	assert.Equal(t, card.Created, out.Kind, out.Reason)
}

func TestMediaUploadFailureDegrades(t *testing.T) {
	rc := runContext(false)
	store := testutil.NewFakeStore(rc.Deck, rc.Model)
	store.MediaErr = svcerr.Permanent("anki", "storeMediaFile", 0, errors.New("disk full"))

	out := New(store, nil).Reconcile(context.Background(), rc, record("apple"))
	require.Equal(t, card.Created, out.Kind, out.Reason)
	assert.Contains(t, out.Notices, "US audio upload failed")

	note, _ := store.Note(out.NoteID)
	assert.Empty(t, note.Fields[FieldUSAudio])
}

func TestStoreDownFails(t *testing.T) {
	rc := runContext(false)
	store := testutil.NewFakeStore(rc.Deck, rc.Model)
	store.SetDown(true)

	out := New(store, nil).Reconcile(context.Background(), rc, record("apple"))
	assert.Equal(t, card.Failed, out.Kind)
	assert.True(t, svcerr.IsStoreUnavailable(out.Err))
}

func TestFieldsFormatting(t *testing.T) {
	rec := card.Record{
		Word: "run",
		Definitions: []card.Definition{
			{EN: "move fast", CN: "跑"},
			{EN: "manage <things>"},
		},
		Notes: []string{"BrE: run", "also: n. a jog"},
	}
	f := Fields(rec, MediaRefs{Image: "x.jpg"})

	assert.Equal(t, "1. move fast<br>2. manage &lt;things&gt;", f[FieldDefinitionEN])
	assert.Equal(t, "1. 跑", f[FieldDefinitionCN])
	assert.Equal(t, "• BrE: run<br>• also: n. a jog", f[FieldNotes])
	assert.Equal(t, `<img src="x.jpg">`, f[FieldImages])
	assert.NotContains(t, f, FieldUserNotes)

	upd := UpdateFields(f)
	assert.Contains(t, upd, FieldSynonyms)
	assert.NotContains(t, upd, FieldUSAudio)
	assert.Contains(t, upd, FieldImages)
}

func TestSearchQuery(t *testing.T) {
	q := SearchQuery(card.NewRunContext("", "", nil, false, false), `it's "ok"`)
	assert.Equal(t, `deck:"English::AI Words" note:"AI Word (R)" "Word:it's \"ok\""`, q)
}
