package ankiconnect

import (
	"html"
	"regexp"
	"strings"
)

var searchEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`*`, `\*`,
	`_`, `\_`,
)

// EscapeSearch escapes text for use inside a quoted Anki search term so
// that it matches literally. Colons need no escape once a field or
// deck prefix has been given.
func EscapeSearch(s string) string {
	return searchEscaper.Replace(s)
}

// FieldQuery builds a search for notes of model in deck whose field equals
// value. Anki compares field content case-insensitively.
func FieldQuery(deck, model, field, value string) string {
	var parts []string
	if deck != "" {
		parts = append(parts, `deck:"`+EscapeSearch(deck)+`"`)
	}
	if model != "" {
		parts = append(parts, `note:"`+EscapeSearch(model)+`"`)
	}
	parts = append(parts, `"`+EscapeSearch(field)+`:`+EscapeSearch(value)+`"`)
	return strings.Join(parts, " ")
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// PlainText strips HTML tags and decodes entities in a field value.
func PlainText(v string) string {
	v = htmlTag.ReplaceAllString(v, "")
	v = html.UnescapeString(strings.ReplaceAll(v, "&nbsp;", " "))
	return strings.TrimSpace(v)
}
