package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers line by line from a terminal or any reader
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter creates a prompter reading from in and writing prompts to out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Word asks for the next word. It returns false on an empty line or at the
// end of input, which ends the session.
func (p *Prompter) Word() (string, bool) {
	line, ok := p.ask("Word: ")
	if !ok || line == "" {
		return "", false
	}
	return strings.Join(strings.Fields(line), " "), true
}

// Confirm asks a yes/no question; an empty answer or end of input picks def.
func (p *Prompter) Confirm(question string, def bool) bool {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	answer, ok := p.ask(fmt.Sprintf("%s %s ", question, hint))
	if !ok {
		return def
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

func (p *Prompter) ask(prompt string) (string, bool) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}
