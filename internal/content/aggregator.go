// Package content turns a word into the textual part of a card by asking
// a text generation model for a structured entry.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/svcerr"
	"codeberg.org/snonux/smartdeck/internal/textgen"
)

// MaxWordLength bounds the input accepted by Aggregate.
const MaxWordLength = 100

var (
	ErrEmptyWord   = errors.New("word is empty")
	ErrInvalidWord = errors.New("word contains control characters")
	ErrWordTooLong = fmt.Errorf("word is longer than %d characters", MaxWordLength)
)

var cefrLevel = regexp.MustCompile(`(?i)\b([ABC][12])\b`)

// GenerationError wraps any failure to produce content for a word.
type GenerationError struct {
	Word string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("content generation failed for %q: %v", e.Word, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Options tunes the request sent to the model.
type Options struct {
	Languages   textgen.LanguagePair
	MaxExamples int
	MaxSynonyms int
	// IncompleteRetries is how many extra requests are made when the
	// answer parses but carries no English definition.
	IncompleteRetries int
}

// DefaultOptions returns en->zh with two examples, five synonyms and one
// extra attempt for incomplete answers.
func DefaultOptions() Options {
	return Options{
		Languages:         textgen.DefaultLanguagePair(),
		MaxExamples:       2,
		MaxSynonyms:       5,
		IncompleteRetries: 1,
	}
}

// Aggregator produces card.Records.
type Aggregator struct {
	gen    textgen.Generator
	opts   Options
	logger *slog.Logger
}

// New creates an Aggregator on top of gen.
func New(gen textgen.Generator, opts Options, logger *slog.Logger) *Aggregator {
	def := DefaultOptions()
	if opts.Languages.Source == "" || opts.Languages.Target == "" {
		opts.Languages = def.Languages
	}
	if opts.MaxExamples <= 0 {
		opts.MaxExamples = def.MaxExamples
	}
	if opts.MaxSynonyms <= 0 {
		opts.MaxSynonyms = def.MaxSynonyms
	}
	if opts.IncompleteRetries < 0 {
		opts.IncompleteRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{gen: gen, opts: opts, logger: logger.With("component", "content")}
}

// ValidateWord trims word and rejects input that must never reach a
// remote service.
func ValidateWord(word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", ErrEmptyWord
	}
	if utf8.RuneCountInString(word) > MaxWordLength {
		return "", ErrWordTooLong
	}
	for _, r := range word {
		if unicode.IsControl(r) {
			return "", ErrInvalidWord
		}
	}
	return word, nil
}

// Aggregate generates the textual content for word. A record whose
// definition stayed empty is returned with Incomplete set rather than as
// an error.
func (a *Aggregator) Aggregate(ctx context.Context, word string) (*card.Record, error) {
	clean, err := ValidateWord(word)
	if err != nil {
		return nil, &GenerationError{
			Word: word,
			Err:  svcerr.Permanent("content", "validate", 0, err),
		}
	}

	req := textgen.Request{
		Word:        clean,
		Languages:   a.opts.Languages,
		MaxExamples: a.opts.MaxExamples,
		MaxSynonyms: a.opts.MaxSynonyms,
	}

	var rec card.Record
	for attempt := 0; attempt <= a.opts.IncompleteRetries; attempt++ {
		entries, err := a.gen.Generate(ctx, req)
		if err != nil {
			return nil, &GenerationError{Word: clean, Err: err}
		}
		rec = a.toRecord(clean, entries)
		if rec.HasDefinition() {
			return &rec, nil
		}
		a.logger.Warn("model returned no definition", "word", clean, "attempt", attempt+1, "generator", a.gen.Name())
	}

	rec.Incomplete = true
	return &rec, nil
}

func (a *Aggregator) toRecord(word string, entries []textgen.Entry) card.Record {
	rec := card.Record{Word: word}
	if len(entries) == 0 {
		return rec
	}

	e := entries[0]
	rec.USPronunciation = strings.TrimSpace(e.USPron)
	rec.UKPronunciation = strings.TrimSpace(e.UKPron)
	rec.PartOfSpeech = parseWordForm(e.WordForm)
	rec.CEFR = parseCEFR(e.Frequency)

	for _, s := range e.Definitions {
		en, cn := strings.TrimSpace(s.EN), strings.TrimSpace(s.CN)
		if en == "" && cn == "" {
			continue
		}
		rec.Definitions = append(rec.Definitions, card.Definition{EN: en, CN: cn})
	}

	for _, s := range e.Synonyms {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, word) {
			continue
		}
		if len(rec.Synonyms) == a.opts.MaxSynonyms {
			break
		}
		rec.Synonyms = append(rec.Synonyms, s)
	}

	for _, ex := range e.Examples {
		if strings.TrimSpace(ex.Sentence) == "" {
			continue
		}
		if len(rec.Examples) == a.opts.MaxExamples {
			break
		}
		rec.Examples = append(rec.Examples, card.Example{
			Sentence:    strings.TrimSpace(ex.Sentence),
			Translation: strings.TrimSpace(ex.Translation),
		})
	}

	for _, n := range e.Notes {
		if n = strings.TrimSpace(n); n != "" {
			rec.Notes = append(rec.Notes, n)
		}
	}
	for _, extra := range entries[1:] {
		if note := alsoNote(extra); note != "" {
			rec.Notes = append(rec.Notes, note)
		}
	}

	return rec
}

// alsoNote folds an additional word form into a single note line.
func alsoNote(e textgen.Entry) string {
	form := strings.TrimSpace(e.WordForm)
	var def string
	for _, s := range e.Definitions {
		if def = strings.TrimSpace(s.EN); def != "" {
			break
		}
	}
	switch {
	case form != "" && def != "":
		return "also: " + form + " " + def
	case form != "":
		return "also: " + form
	case def != "":
		return "also: " + def
	}
	return ""
}

// parseWordForm uses the first of possibly several comma separated forms.
func parseWordForm(s string) card.PartOfSpeech {
	first, _, _ := strings.Cut(s, ",")
	pos := card.ParsePartOfSpeech(first)
	if pos != card.PartOfSpeechOther {
		return pos
	}
	head, _, _ := strings.Cut(strings.TrimSpace(first), " ")
	return card.ParsePartOfSpeech(head)
}

func parseCEFR(s string) string {
	m := cefrLevel.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
