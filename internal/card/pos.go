package card

import "strings"

// PartOfSpeech is the grammatical category of a word.
type PartOfSpeech string

const (
	PartOfSpeechUnknown      PartOfSpeech = ""
	PartOfSpeechNoun         PartOfSpeech = "noun"
	PartOfSpeechVerb         PartOfSpeech = "verb"
	PartOfSpeechAdjective    PartOfSpeech = "adjective"
	PartOfSpeechAdverb       PartOfSpeech = "adverb"
	PartOfSpeechPronoun      PartOfSpeech = "pronoun"
	PartOfSpeechPreposition  PartOfSpeech = "preposition"
	PartOfSpeechConjunction  PartOfSpeech = "conjunction"
	PartOfSpeechInterjection PartOfSpeech = "interjection"
	PartOfSpeechDeterminer   PartOfSpeech = "determiner"
	PartOfSpeechPhrase       PartOfSpeech = "phrase"
	PartOfSpeechOther        PartOfSpeech = "other"
)

var posAliases = map[string]PartOfSpeech{
	"n":            PartOfSpeechNoun,
	"noun":         PartOfSpeechNoun,
	"v":            PartOfSpeechVerb,
	"verb":         PartOfSpeechVerb,
	"vt":           PartOfSpeechVerb,
	"vi":           PartOfSpeechVerb,
	"adj":          PartOfSpeechAdjective,
	"adjective":    PartOfSpeechAdjective,
	"adv":          PartOfSpeechAdverb,
	"adverb":       PartOfSpeechAdverb,
	"pron":         PartOfSpeechPronoun,
	"pronoun":      PartOfSpeechPronoun,
	"prep":         PartOfSpeechPreposition,
	"preposition":  PartOfSpeechPreposition,
	"conj":         PartOfSpeechConjunction,
	"conjunction":  PartOfSpeechConjunction,
	"interj":       PartOfSpeechInterjection,
	"interjection": PartOfSpeechInterjection,
	"det":          PartOfSpeechDeterminer,
	"determiner":   PartOfSpeechDeterminer,
	"phrase":       PartOfSpeechPhrase,
	"phrasal verb": PartOfSpeechPhrase,
	"idiom":        PartOfSpeechPhrase,
}

// ParsePartOfSpeech maps free text such as "adj." or "Noun" to a
// PartOfSpeech. Empty input yields PartOfSpeechUnknown, anything
// unrecognised PartOfSpeechOther.
func ParsePartOfSpeech(s string) PartOfSpeech {
	s = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ".")))
	if s == "" {
		return PartOfSpeechUnknown
	}
	if pos, ok := posAliases[s]; ok {
		return pos
	}
	return PartOfSpeechOther
}

// Label is the human readable form written to the note.
func (p PartOfSpeech) Label() string {
	return string(p)
}
