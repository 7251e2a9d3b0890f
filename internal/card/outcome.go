package card

import "fmt"

// Kind is the terminal classification of one word's processing.
type Kind int

const (
	Failed Kind = iota
	Created
	Updated
	Skipped
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome is the result returned for every processed word.
type Outcome struct {
	Word   string
	Kind   Kind
	NoteID int64  // set for Created, Updated and Skipped
	Reason string // set for Failed
	Err    error  // the classified error behind a failure

	// Notices are informational, e.g. "no image found".
	Notices []string
}

// Succeeded reports whether the outcome counts as a successful run.
func (o Outcome) Succeeded() bool {
	return o.Kind != Failed
}

func (o Outcome) String() string {
	switch o.Kind {
	case Failed:
		return fmt.Sprintf("%s: failed: %s", o.Word, o.Reason)
	default:
		return fmt.Sprintf("%s: %s (note %d)", o.Word, o.Kind, o.NoteID)
	}
}

// Fail builds a Failed outcome for word.
func Fail(word string, err error) Outcome {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Outcome{Word: word, Kind: Failed, Reason: reason, Err: err}
}

// Summary aggregates outcome counts.
type Summary struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Summarize counts outcomes by kind.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Kind {
		case Created:
			s.Created++
		case Updated:
			s.Updated++
		case Skipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// Total is the number of outcomes summarized.
func (s Summary) Total() int {
	return s.Created + s.Updated + s.Skipped + s.Failed
}
