package reconcile

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"codeberg.org/snonux/smartdeck/internal/card"
)

// Field names of the note type.
const (
	FieldWord            = "Word"
	FieldUSPronunciation = "US Pronunciation"
	FieldUKPronunciation = "UK Pronunciation"
	FieldUSAudio         = "US Audio"
	FieldUKAudio         = "UK Audio"
	FieldWordForm        = "Word Form"
	FieldDefinitionEN    = "Definition EN"
	FieldDefinitionCN    = "Definition CN"
	FieldSynonyms        = "Synonyms"
	FieldExamples        = "Examples"
	FieldImages          = "Images"
	FieldNotes           = "Notes"
	FieldUserNotes       = "User Notes"
)

// RequiredFields are the fields the note type must have.
var RequiredFields = []string{
	FieldWord, FieldUSPronunciation, FieldUKPronunciation, FieldUSAudio, FieldUKAudio,
	FieldWordForm, FieldDefinitionEN, FieldDefinitionCN, FieldSynonyms,
	FieldExamples, FieldImages, FieldNotes, FieldUserNotes,
}

// textFields are rewritten on every update so that an empty value clears
// the note; the remaining fields are only written when there is content.
var textFields = []string{
	FieldWord, FieldWordForm, FieldDefinitionEN, FieldDefinitionCN,
	FieldSynonyms, FieldExamples, FieldNotes,
}

// MediaRefs are the stored filenames of a record's uploaded media.
type MediaRefs struct {
	USAudio string
	UKAudio string
	Image   string
}

var bold = regexp.MustCompile(`\*\*(.+?)\*\*`)

// markup escapes only what Anki would read as HTML. The Word field is
// searched verbatim, so quotes and apostrophes must stay as typed.
var markup = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Fields renders rec into note fields. User Notes is never produced.
func Fields(rec card.Record, refs MediaRefs) map[string]string {
	return map[string]string{
		FieldWord:            markup.Replace(rec.Word),
		FieldUSPronunciation: html.EscapeString(rec.USPronunciation),
		FieldUKPronunciation: html.EscapeString(rec.UKPronunciation),
		FieldUSAudio:         soundTag(refs.USAudio),
		FieldUKAudio:         soundTag(refs.UKAudio),
		FieldWordForm:        rec.PartOfSpeech.Label(),
		FieldDefinitionEN:    definitions(rec.Definitions, func(d card.Definition) string { return d.EN }),
		FieldDefinitionCN:    definitions(rec.Definitions, func(d card.Definition) string { return d.CN }),
		FieldSynonyms:        html.EscapeString(strings.Join(rec.Synonyms, ", ")),
		FieldExamples:        examples(rec.Examples),
		FieldImages:          imgTag(refs.Image),
		FieldNotes:           bullets(rec.Notes),
	}
}

// UpdateFields applies the update policy to a full field set: text fields
// are always kept, enrichments only when non-empty.
func UpdateFields(all map[string]string) map[string]string {
	out := make(map[string]string, len(all))
	for _, name := range textFields {
		out[name] = all[name]
	}
	for name, v := range all {
		if _, ok := out[name]; ok || name == FieldUserNotes || v == "" {
			continue
		}
		out[name] = v
	}
	return out
}

func soundTag(file string) string {
	if file == "" {
		return ""
	}
	return "[sound:" + file + "]"
}

func imgTag(file string) string {
	if file == "" {
		return ""
	}
	return `<img src="` + html.EscapeString(file) + `">`
}

// definitions numbers senses when there is more than one, keeping the
// numbering aligned between the English and Chinese fields.
func definitions(defs []card.Definition, pick func(card.Definition) string) string {
	var lines []string
	for i, d := range defs {
		v := strings.TrimSpace(pick(d))
		if v == "" {
			continue
		}
		v = html.EscapeString(v)
		if len(defs) > 1 {
			v = fmt.Sprintf("%d. %s", i+1, v)
		}
		lines = append(lines, v)
	}
	return strings.Join(lines, "<br>")
}

func examples(exs []card.Example) string {
	var lines []string
	for _, ex := range exs {
		line := "• " + emphasize(ex.Sentence)
		if ex.Translation != "" {
			line += "<br>&nbsp;&nbsp;" + emphasize(ex.Translation)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "<br>")
}

func bullets(notes []string) string {
	var lines []string
	for _, n := range notes {
		lines = append(lines, "• "+html.EscapeString(n))
	}
	return strings.Join(lines, "<br>")
}

// emphasize escapes s and turns **word** markers into bold.
func emphasize(s string) string {
	return bold.ReplaceAllString(html.EscapeString(s), "<b>$1</b>")
}
