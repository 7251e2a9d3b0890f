package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/smartdeck/internal/archive"
	"codeberg.org/snonux/smartdeck/internal/journal"
	"codeberg.org/snonux/smartdeck/internal/models"
)

func newHistoryCommand(flags *Flags) *cobra.Command {
	var (
		limit     int
		doArchive bool
	)
	cmd := &cobra.Command{
		Use:   "history [word]",
		Short: "Show recently processed words",
		Long: `Show recently processed words from the run journal.

With --archive the journal is moved to an archive directory next to it
and a fresh history starts with the next run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("journal.path")
			if path == "" {
				return fmt.Errorf("journal is disabled (journal.path is empty)")
			}
			out := cmd.OutOrStdout()

			if doArchive {
				dest, err := archive.ArchiveFile(path, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Journal archived to %s\n", dest)
				return nil
			}

			j, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer j.Close()

			word := ""
			if len(args) == 1 {
				word = strings.TrimSpace(args[0])
			}
			entries, err := j.Recent(commandContext(cmd), word, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history yet")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tCOMMAND\tWORD\tRESULT\tNOTE\tREASON")
			for _, e := range entries {
				note, reason := "-", "-"
				if e.NoteID != 0 {
					note = strconv.FormatInt(e.NoteID, 10)
				}
				if e.Reason != "" {
					reason = e.Reason
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.At.Local().Format("2006-01-02 15:04"), e.Command, e.Word, e.Kind, note, reason)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&doArchive, "archive", false, "Move the journal to the archive directory")
	return cmd
}

func newListModelsCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-models",
		Short: "List available text and speech models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := LoadSettings()
			lister := models.NewLister(models.Config{
				OpenAIKey:     s.Credentials.OpenAIKey,
				OpenAIBaseURL: s.Text.OpenAIBaseURL,
				GeminiKey:     s.Credentials.GoogleAIKey,
				GeminiBaseURL: s.Text.GeminiBaseURL,
			})
			flags.Logger().Debug("listing models")
			return lister.ListAvailableModels(commandContext(cmd), cmd.OutOrStdout())
		},
	}
}
