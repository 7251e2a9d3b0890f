package internal

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// MediaFilename builds the store filename for a media artifact. The name
// carries the word for humans and md5(data)[:8] so that regenerated media
// never collides with an older file of the same word.
// Format: smartdeck_<word>_<hash><ext>
func MediaFilename(hint string, data []byte) string {
	ext := filepath.Ext(hint)
	base := strings.TrimSuffix(hint, ext)
	if ext == "" || len(ext) > 5 {
		ext = ".bin"
	}

	hash := md5.Sum(data)
	hashStr := hex.EncodeToString(hash[:])[:8] // Use first 8 chars of MD5

	return fmt.Sprintf("smartdeck_%s_%s%s", SanitizeFilename(base), hashStr, strings.ToLower(ext))
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlphaNumeric(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// isAlphaNumeric checks if a rune is alphanumeric
func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
