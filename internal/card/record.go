// Package card defines the data exchanged between the card generation
// stages: the assembled Record, the per-word Outcome and the RunContext
// shared by a whole invocation.
package card

import (
	"slices"
	"strings"
)

// Definition is one sense of a word with its Chinese gloss.
type Definition struct {
	EN string
	CN string
}

// Example is an example sentence and its translation.
type Example struct {
	Sentence    string
	Translation string
}

// Media is an in-memory audio or image artifact waiting to be uploaded.
type Media struct {
	Filename    string // suggested store filename, including extension
	ContentType string
	Data        []byte
}

// Empty reports whether m carries no data.
func (m *Media) Empty() bool {
	return m == nil || len(m.Data) == 0
}

// Record is everything generated for one word. It is built by value and
// must not be modified once handed to the reconciler; the With* helpers
// return copies.
type Record struct {
	Word            string
	USPronunciation string
	UKPronunciation string
	USAudio         *Media
	UKAudio         *Media
	PartOfSpeech    PartOfSpeech
	Definitions     []Definition
	Synonyms        []string
	Examples        []Example
	Image           *Media
	Notes           []string
	CEFR            string
	Tags            []string

	// Incomplete is set when no English definition could be generated.
	Incomplete bool
}

// HasDefinition reports whether at least one English sense is present.
func (r Record) HasDefinition() bool {
	for _, d := range r.Definitions {
		if strings.TrimSpace(d.EN) != "" {
			return true
		}
	}
	return false
}

// WithMedia returns a copy of r carrying the given artifacts. Nil
// arguments leave the corresponding field untouched.
func (r Record) WithMedia(us, uk, img *Media) Record {
	if !us.Empty() {
		r.USAudio = us
	}
	if !uk.Empty() {
		r.UKAudio = uk
	}
	if !img.Empty() {
		r.Image = img
	}
	return r
}

// WithTags returns a copy of r whose tag set is the union of its own tags,
// the given ones and the derived CEFR tag. Order is stable and duplicates
// are dropped case-insensitively.
func (r Record) WithTags(tags ...string) Record {
	all := make([]string, 0, len(r.Tags)+len(tags)+1)
	all = append(all, r.Tags...)
	all = append(all, tags...)
	if r.CEFR != "" {
		all = append(all, "cefr::"+strings.ToUpper(r.CEFR))
	}
	r.Tags = NormalizeTags(all)
	return r
}

// NormalizeTags trims, drops empty and de-duplicates tags. Anki tags cannot
// contain spaces, so inner whitespace becomes an underscore.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(t), "_")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return slices.Clip(out)
}
