package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"codeberg.org/snonux/smartdeck/internal/card"
)

// printOutcome prints one progress line. total is 0 when unknown, as in
// interactive mode.
func printOutcome(w io.Writer, n, total int, o card.Outcome) {
	prefix := fmt.Sprintf("[%d]", n)
	if total > 0 {
		prefix = fmt.Sprintf("[%d/%d]", n, total)
	}

	switch o.Kind {
	case card.Failed:
		fmt.Fprintf(w, "%s %s: failed: %s\n", prefix, o.Word, o.Reason)
	default:
		fmt.Fprintf(w, "%s %s: %s (note %d)\n", prefix, o.Word, o.Kind, o.NoteID)
	}
	for _, notice := range o.Notices {
		fmt.Fprintf(w, "      note: %s\n", notice)
	}
}

// PrintSummary prints a table of outcomes followed by the totals
func PrintSummary(w io.Writer, outcomes []card.Outcome) {
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tRESULT\tNOTE\tREASON")
	for _, o := range outcomes {
		note := "-"
		if o.NoteID != 0 {
			note = strconv.FormatInt(o.NoteID, 10)
		}
		reason := o.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Word, o.Kind, note, reason)
	}
	_ = tw.Flush()

	s := card.Summarize(outcomes)
	fmt.Fprintf(w, "\n%d created, %d updated, %d skipped, %d failed (%d total)\n",
		s.Created, s.Updated, s.Skipped, s.Failed, s.Total())
}
