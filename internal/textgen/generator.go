// Package textgen asks a generative text model for the dictionary content
// of a word in one structured round trip.
package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// LanguagePair selects the language of the word and of the glosses.
type LanguagePair struct {
	Source string // e.g. "American English"
	Target string // e.g. "Simplified Chinese"
}

// DefaultLanguagePair is English to Chinese.
func DefaultLanguagePair() LanguagePair {
	return LanguagePair{Source: "American English", Target: "Simplified Chinese"}
}

// Request is one word to describe.
type Request struct {
	Word        string
	Languages   LanguagePair
	MaxExamples int
	MaxSynonyms int
}

// Sense is one definition with its translation.
type Sense struct {
	EN string `json:"en" description:"English definition"`
	CN string `json:"cn" description:"Translation of the definition into the target language"`
}

// ExampleSentence is an example and its translation.
type ExampleSentence struct {
	Sentence    string `json:"sentence" description:"Example sentence with the word or phrase wrapped in **"`
	Translation string `json:"translation" description:"Translation of the sentence"`
}

// Entry is the structured answer for one word form.
type Entry struct {
	Word        string            `json:"word"`
	USPron      string            `json:"us_pron" description:"American IPA transcription"`
	UKPron      string            `json:"uk_pron" description:"British IPA transcription"`
	WordForm    string            `json:"word_form" description:"Part of speech abbreviation such as n., vt., vi., adj."`
	Frequency   string            `json:"frequency" description:"CEFR level A1, A2, B1, B2, C1 or C2"`
	Definitions []Sense           `json:"definitions"`
	Synonyms    []string          `json:"synonyms"`
	Notes       []string          `json:"notes" description:"Usage notes including British English variants as 'BrE: word'"`
	Examples    []ExampleSentence `json:"examples"`
}

// Response wraps the entries so that both providers can demand an object at
// the top level.
type Response struct {
	Entries []Entry `json:"entries"`
}

// Generator produces entries for a word. Implementations retry transient
// failures themselves and return svcerr classified errors.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Entry, error)
	Name() string
}

var errEmptyResponse = errors.New("empty response from model")

// BuildPrompt renders the instruction sent along with the response schema.
func BuildPrompt(req Request) string {
	langs := req.Languages
	if langs.Source == "" || langs.Target == "" {
		langs = DefaultLanguagePair()
	}
	maxExamples := req.MaxExamples
	if maxExamples <= 0 {
		maxExamples = 2
	}
	maxSynonyms := req.MaxSynonyms
	if maxSynonyms <= 0 {
		maxSynonyms = 5
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the word %q with a focus on %s and return JSON with an \"entries\" array, one entry per word form.\n", req.Word, langs.Source)
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "1. Definitions, examples and spelling follow %s usage.\n", langs.Source)
	b.WriteString("2. If a British variant exists (spelling or a different word), add it to notes as 'BrE: <word>'.\n")
	b.WriteString("3. frequency is the CEFR level (A1-C2) of the word form.\n")
	b.WriteString("4. word_form uses only concise abbreviations (n., vt., vi., adj., adv., prep., conj.).\n")
	fmt.Fprintf(&b, "5. Every definition has an English text (en) and a %s translation (cn) describing the same sense.\n", langs.Target)
	fmt.Fprintf(&b, "6. At most %d example sentences per entry, each with a %s translation; wrap the word in ** inside the sentence.\n", maxExamples, langs.Target)
	fmt.Fprintf(&b, "7. At most %d synonyms.\n", maxSynonyms)
	b.WriteString("8. Respond only with raw JSON, no markdown.")
	return b.String()
}

// ParseResponse decodes a model answer. Besides the wrapped object it
// accepts a bare array or a single entry, with or without a markdown fence.
func ParseResponse(text string) ([]Entry, error) {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return nil, errEmptyResponse
	}

	switch text[0] {
	case '[':
		var entries []Entry
		if err := json.Unmarshal([]byte(text), &entries); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		return entries, nil
	case '{':
		var resp Response
		if err := json.Unmarshal([]byte(text), &resp); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		if len(resp.Entries) > 0 {
			return resp.Entries, nil
		}
		var single Entry
		if err := json.Unmarshal([]byte(text), &single); err == nil && single.Word != "" {
			return []Entry{single}, nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("malformed response: unexpected leading %q", text[0])
	}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
