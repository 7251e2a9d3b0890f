package audio

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxTextLength bounds what we send to a TTS engine; a card word or short
// phrase never comes close.
const maxTextLength = 200

// ValidateText validates that the input is a speakable word or phrase
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}

	if utf8.RuneCountInString(text) > maxTextLength {
		return fmt.Errorf("text is too long: %d characters (max %d)", utf8.RuneCountInString(text), maxTextLength)
	}

	hasLetter := false
	for _, r := range text {
		if unicode.IsControl(r) {
			return fmt.Errorf("text contains control characters")
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}

	if !hasLetter {
		return fmt.Errorf("text must contain letters")
	}

	return nil
}
