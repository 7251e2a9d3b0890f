package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/snonux/smartdeck/internal/ankiconnect"
	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/image"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/textgen"
)

// FakeGenerator answers from a map keyed by lower-cased word. Unknown
// words get a minimal entry with one definition.
type FakeGenerator struct {
	mu      sync.Mutex
	Entries map[string][]textgen.Entry
	Errs    map[string]error
	Delay   time.Duration
	calls   map[string]int
}

// NewFakeGenerator creates an empty FakeGenerator.
func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{
		Entries: map[string][]textgen.Entry{},
		Errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (g *FakeGenerator) Name() string { return "fake-generator" }

// Generate implements textgen.Generator.
func (g *FakeGenerator) Generate(ctx context.Context, req textgen.Request) ([]textgen.Entry, error) {
	if g.Delay > 0 {
		select {
		case <-time.After(g.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	key := strings.ToLower(req.Word)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[key]++

	if err, ok := g.Errs[key]; ok {
		return nil, err
	}
	if entries, ok := g.Entries[key]; ok {
		return entries, nil
	}
	return []textgen.Entry{{
		Word:        req.Word,
		WordForm:    "n.",
		Definitions: []textgen.Sense{{EN: "a test meaning of " + req.Word, CN: "测试"}},
	}}, nil
}

// Calls returns how often word was requested.
func (g *FakeGenerator) Calls(word string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[strings.ToLower(word)]
}

// FakeSpeaker is an audio.Provider returning fixed MP3 bytes.
type FakeSpeaker struct {
	Accent string
	Err    error
	calls  atomic.Int32
}

func (s *FakeSpeaker) Name() string { return "fake-speaker-" + s.Accent }

func (s *FakeSpeaker) IsAvailable() error { return nil }

// Synthesize implements audio.Provider.
func (s *FakeSpeaker) Synthesize(ctx context.Context, text string) (*card.Media, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return &card.Media{
		Filename:    fmt.Sprintf("%s_%s.mp3", text, s.Accent),
		ContentType: "audio/mpeg",
		Data:        append([]byte(nil), MP3Data...),
	}, nil
}

// Calls returns the number of Synthesize calls.
func (s *FakeSpeaker) Calls() int { return int(s.calls.Load()) }

// FakeSearcher is an image.ImageSearcher serving Results and the bytes in
// Images keyed by URL.
type FakeSearcher struct {
	Results   []image.SearchResult
	Images    map[string][]byte
	SearchErr error
	searches  atomic.Int32
}

func (s *FakeSearcher) Name() string { return "fake-search" }

// Search implements image.ImageSearcher.
func (s *FakeSearcher) Search(ctx context.Context, opts *image.SearchOptions) ([]image.SearchResult, error) {
	s.searches.Add(1)
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	return s.Results, nil
}

// Download implements image.ImageSearcher.
func (s *FakeSearcher) Download(ctx context.Context, url string) (io.ReadCloser, string, error) {
	data, ok := s.Images[url]
	if !ok {
		return nil, "", svcerr.Permanent("fake-search", "download", 404, fmt.Errorf("no image at %s", url))
	}
	return io.NopCloser(bytes.NewReader(data)), "", nil
}

// Searches returns the number of Search calls.
func (s *FakeSearcher) Searches() int { return int(s.searches.Load()) }

// StoredNote is a note held by FakeStore.
type StoredNote struct {
	ID     int64
	Deck   string
	Model  string
	Fields map[string]string
	Tags   []string
}

// FakeStore is an in-memory note store speaking the AnkiConnect client's
// method set.
type FakeStore struct {
	mu     sync.Mutex
	nextID int64
	notes  map[int64]*StoredNote
	media  map[string][]byte
	decks  map[string]bool
	models map[string]bool

	// AddErrs fails AddNote for the lower-cased Word field.
	AddErrs map[string]error
	// MediaErr fails every StoreMediaFile call.
	MediaErr error

	down   atomic.Bool
	writes atomic.Int32
}

// NewFakeStore creates a store knowing the given model and deck.
func NewFakeStore(deck, model string) *FakeStore {
	return &FakeStore{
		nextID:  1000,
		notes:   map[int64]*StoredNote{},
		media:   map[string][]byte{},
		decks:   map[string]bool{deck: true},
		models:  map[string]bool{model: true},
		AddErrs: map[string]error{},
	}
}

// SetDown makes every call fail as if the store were unreachable.
func (s *FakeStore) SetDown(down bool) { s.down.Store(down) }

func (s *FakeStore) check() error {
	if s.down.Load() {
		return &svcerr.StoreUnavailableError{URL: "fake://anki", Err: fmt.Errorf("connection refused")}
	}
	return nil
}

// Seed inserts a note directly and returns its ID.
func (s *FakeStore) Seed(deck, model string, fields map[string]string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.notes[s.nextID] = &StoredNote{ID: s.nextID, Deck: deck, Model: model, Fields: fields}
	return s.nextID
}

// Note returns a copy of a stored note.
func (s *FakeStore) Note(id int64) (StoredNote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return StoredNote{}, false
	}
	cp := *n
	cp.Fields = make(map[string]string, len(n.Fields))
	for k, v := range n.Fields {
		cp.Fields[k] = v
	}
	cp.Tags = append([]string(nil), n.Tags...)
	return cp, true
}

// NoteCount returns the number of stored notes.
func (s *FakeStore) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// Media returns an uploaded media file.
func (s *FakeStore) Media(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.media[name]
	return data, ok
}

// Writes counts AddNote, UpdateNoteFields, AddTags and StoreMediaFile calls.
func (s *FakeStore) Writes() int { return int(s.writes.Load()) }

func (s *FakeStore) Version(ctx context.Context) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return 6, nil
}

func (s *FakeStore) Ping(ctx context.Context) error {
	_, err := s.Version(ctx)
	return err
}

func (s *FakeStore) DeckNames(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for d := range s.decks {
		names = append(names, d)
	}
	return names, nil
}

func (s *FakeStore) CreateDeck(ctx context.Context, name string) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decks[name] = true
	return int64(len(s.decks)), nil
}

func (s *FakeStore) ModelNames(ctx context.Context) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for m := range s.models {
		names = append(names, m)
	}
	return names, nil
}

var (
	deckTerm  = regexp.MustCompile(`deck:"((?:[^"\\]|\\.)*)"`)
	modelTerm = regexp.MustCompile(`note:"((?:[^"\\]|\\.)*)"`)
	wordTerm  = regexp.MustCompile(`"Word:((?:[^"\\]|\\.)*)"`)
	escaped   = regexp.MustCompile(`\\(.)`)
)

func unescape(s string) string {
	return escaped.ReplaceAllString(s, "$1")
}

// FindNotes understands the deck, note and Word terms of a search.
func (s *FakeStore) FindNotes(ctx context.Context, query string) ([]int64, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var deck, model, word string
	if m := deckTerm.FindStringSubmatch(query); m != nil {
		deck = unescape(m[1])
	}
	if m := modelTerm.FindStringSubmatch(query); m != nil {
		model = unescape(m[1])
	}
	if m := wordTerm.FindStringSubmatch(query); m != nil {
		word = unescape(m[1])
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, n := range s.notes {
		if deck != "" && n.Deck != deck || model != "" && n.Model != model {
			continue
		}
		if !strings.EqualFold(ankiconnect.PlainText(n.Fields["Word"]), word) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *FakeStore) NotesInfo(ctx context.Context, ids []int64) ([]ankiconnect.NoteInfo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var infos []ankiconnect.NoteInfo
	for _, id := range ids {
		n, ok := s.notes[id]
		if !ok {
			continue
		}
		fields := make(map[string]ankiconnect.FieldValue, len(n.Fields))
		for k, v := range n.Fields {
			fields[k] = ankiconnect.FieldValue{Value: v}
		}
		infos = append(infos, ankiconnect.NoteInfo{NoteID: id, ModelName: n.Model, Tags: n.Tags, Fields: fields})
	}
	return infos, nil
}

func (s *FakeStore) AddNote(ctx context.Context, note ankiconnect.Note) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	s.writes.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.AddErrs[strings.ToLower(ankiconnect.PlainText(note.Fields["Word"]))]; ok {
		return 0, err
	}
	if !s.decks[note.DeckName] {
		return 0, svcerr.Permanent("anki", "addNote", 0, fmt.Errorf("deck was not found: %s", note.DeckName))
	}
	s.nextID++
	fields := make(map[string]string, len(note.Fields))
	for k, v := range note.Fields {
		fields[k] = v
	}
	s.notes[s.nextID] = &StoredNote{
		ID:     s.nextID,
		Deck:   note.DeckName,
		Model:  note.ModelName,
		Fields: fields,
		Tags:   append([]string(nil), note.Tags...),
	}
	return s.nextID, nil
}

func (s *FakeStore) UpdateNoteFields(ctx context.Context, id int64, fields map[string]string) error {
	if err := s.check(); err != nil {
		return err
	}
	s.writes.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return svcerr.Permanent("anki", "updateNoteFields", 0, fmt.Errorf("note was not found: %d", id))
	}
	for k, v := range fields {
		n.Fields[k] = v
	}
	return nil
}

func (s *FakeStore) AddTags(ctx context.Context, ids []int64, tags []string) error {
	if err := s.check(); err != nil {
		return err
	}
	s.writes.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if n, ok := s.notes[id]; ok {
			n.Tags = card.NormalizeTags(append(n.Tags, tags...))
		}
	}
	return nil
}

func (s *FakeStore) StoreMediaFile(ctx context.Context, filename string, data []byte) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	s.writes.Add(1)
	if s.MediaErr != nil {
		return "", s.MediaErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[filename] = append([]byte(nil), data...)
	return filename, nil
}
