package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"codeberg.org/snonux/smartdeck/internal/card"
)

func TestPrintSummary(t *testing.T) {
	outcomes := []card.Outcome{
		{Word: "apple", Kind: card.Created, NoteID: 42},
		{Word: "pear", Kind: card.Skipped, NoteID: 7},
		card.Fail("qwzx", errors.New("no definition returned")),
	}

	var buf bytes.Buffer
	PrintSummary(&buf, outcomes)
	out := buf.String()

	for _, want := range []string{
		"WORD", "RESULT", "NOTE", "REASON",
		"apple", "created", "42",
		"pear", "skipped",
		"qwzx", "failed", "no definition returned",
		"1 created, 0 updated, 1 skipped, 1 failed (3 total)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		total int
		o     card.Outcome
		want  []string
	}{
		{
			name:  "created with total",
			n:     1,
			total: 3,
			o:     card.Outcome{Word: "apple", Kind: card.Created, NoteID: 5},
			want:  []string{"[1/3] apple: created (note 5)"},
		},
		{
			name: "interactive without total",
			n:    2,
			o:    card.Outcome{Word: "pear", Kind: card.Updated, NoteID: 6, Notices: []string{"no image found"}},
			want: []string{"[2] pear: updated (note 6)", "note: no image found"},
		},
		{
			name:  "failure",
			n:     3,
			total: 3,
			o:     card.Fail("qwzx", errors.New("bad")),
			want:  []string{"[3/3] qwzx: failed: bad"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printOutcome(&buf, tt.n, tt.total, tt.o)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
