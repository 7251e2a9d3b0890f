package image

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// blockedHosts are platforms whose images are video stills or social posts
var blockedHosts = []string{
	"tiktok", "youtube", "instagram", "facebook", "twitter", "x.com",
	"reddit", "pinterest",
}

// blockedTerms rejects text heavy or off-topic images when they appear as
// whole words in the title or the context URL
var blockedTerms = []string{
	"video", "deal", "rooftop", "restaurant", "journal", "article", "paper",
	"research", "screenshot", "app", "download", "template", "poster",
	"flyer", "typography", "meme", "quote", "quotes", "logo",
}

// blockedPhrases are dictionary-style images showing the word as text
var blockedPhrases = []string{"dictionary", "vocabulary", "card design", "flashcard"}

var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Filter decides whether a search result is a suitable, safe illustration
// for a word.
type Filter struct {
	word string
}

// NewFilter creates a filter for the given word. Only the first token of a
// phrase is used for the definition checks.
func NewFilter(word string) *Filter {
	w := strings.ToLower(strings.TrimSpace(word))
	if fields := strings.Fields(w); len(fields) > 0 {
		w = fields[0]
	}
	return &Filter{word: w}
}

// Allow reports whether result passes the filter
func (f *Filter) Allow(result SearchResult) bool {
	if result.URL == "" {
		return false
	}
	u, err := url.Parse(result.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	if !f.supportedFormat(u, result.MimeType) {
		return false
	}

	title := strings.ToLower(result.Title)
	context := strings.ToLower(result.ContextURL)

	for _, host := range blockedHosts {
		if strings.Contains(strings.ToLower(u.Host), host) || strings.Contains(context, host) {
			return false
		}
	}

	definitionPhrases := []string{
		f.word + " definition",
		f.word + " meaning",
		f.word + " word",
		"define " + f.word,
		"what is " + f.word,
		"definition of " + f.word,
		"meaning of " + f.word,
	}
	for _, phrase := range append(definitionPhrases, blockedPhrases...) {
		if strings.Contains(title, phrase) || strings.Contains(context, phrase) {
			return false
		}
	}

	words := tokenize(title + " " + context)
	for _, term := range blockedTerms {
		if words[term] {
			return false
		}
	}

	return true
}

// Apply returns the results passing the filter, preserving order
func (f *Filter) Apply(results []SearchResult) []SearchResult {
	var passed []SearchResult
	for _, r := range results {
		if f.Allow(r) {
			passed = append(passed, r)
		}
	}
	return passed
}

func (f *Filter) supportedFormat(u *url.URL, mimeType string) bool {
	if mimeType != "" {
		return strings.HasPrefix(mimeType, "image/") && mimeType != "image/svg+xml"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	// Extensionless CDN URLs are common, the download checks the type later
	return ext == "" || supportedExtensions[ext]
}

// tokenize splits text into lower case words on any non letter/digit
func tokenize(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}
	return words
}
