package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoWords is returned for a word list without a single usable line.
var ErrNoWords = errors.New("no valid words found")

// ReadWordList reads words from a file, one per line.
func ReadWordList(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	defer f.Close()

	words, err := ParseWordList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return words, nil
}

// ParseWordList returns the words of r in order. Surrounding whitespace is
// trimmed; blank lines and lines starting with '#' are ignored.
func ParseWordList(r io.Reader) ([]string, error) {
	var words []string

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
	}

	if len(words) == 0 {
		return nil, ErrNoWords
	}
	return words, nil
}

// CleanArgs trims command line words and drops empty ones.
func CleanArgs(args []string) []string {
	words := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			words = append(words, a)
		}
	}
	return words
}
