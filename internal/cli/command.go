package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/smartdeck/internal"
	"codeberg.org/snonux/smartdeck/internal/batch"
	"codeberg.org/snonux/smartdeck/internal/card"
	"codeberg.org/snonux/smartdeck/internal/journal"
	"codeberg.org/snonux/smartdeck/internal/logging"
	"codeberg.org/snonux/smartdeck/internal/processor"
)

// ErrWordsFailed makes the process exit non-zero after the summary has
// already told the user which words failed.
var ErrWordsFailed = errors.New("some words failed")

// buildServices is replaced in tests.
var buildServices = newServices

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smartdeck",
		Short: "AI powered Anki flashcard generator",
		Long: `smartdeck generates English vocabulary cards and adds them to Anki.

For every word it asks a language model for definitions, translations,
synonyms and examples, synthesizes US and UK pronunciations, searches a
safe illustration and writes the note through AnkiConnect.

Examples:
  smartdeck generate serendipity
  smartdeck batch ephemeral eloquent -t chapter-5
  smartdeck from-file words.txt --no-images --workers 2
  smartdeck interactive`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			InitConfig(flags.CfgFile)
			level := preferFlag(cmd.Flags(), "log-level", flags.LogLevel, viper.GetString("log.level"))
			format := preferFlag(cmd.Flags(), "log-format", flags.LogFormat, viper.GetString("log.format"))
			flags.logger = logging.New(level, format, cmd.ErrOrStderr())
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.smartdeck.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text or json")

	rootCmd.AddCommand(
		newGenerateCommand(flags),
		newBatchCommand(flags),
		newFromFileCommand(flags),
		newInteractiveCommand(flags),
		newHistoryCommand(flags),
		newListModelsCommand(flags),
	)
	return rootCmd
}

func newGenerateCommand(flags *Flags) *cobra.Command {
	rf := &RunFlags{}
	cmd := &cobra.Command{
		Use:   "generate <word>",
		Short: "Generate a single card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWords(cmd, flags, rf, "generate", batch.CleanArgs(args))
		},
	}
	addRunFlags(cmd, rf, false)
	return cmd
}

func newBatchCommand(flags *Flags) *cobra.Command {
	rf := &RunFlags{}
	cmd := &cobra.Command{
		Use:   "batch <word>...",
		Short: "Generate cards for several words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWords(cmd, flags, rf, "batch", batch.CleanArgs(args))
		},
	}
	addRunFlags(cmd, rf, true)
	return cmd
}

func newFromFileCommand(flags *Flags) *cobra.Command {
	rf := &RunFlags{}
	cmd := &cobra.Command{
		Use:   "from-file <path>",
		Short: "Generate cards from a word list file",
		Long: `Generate cards from a word list file.

The file contains one word or phrase per line. Empty lines and lines
starting with # are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := batch.ReadWordList(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d words from %s\n", len(words), args[0])
			return runWords(cmd, flags, rf, "from-file", words)
		},
	}
	addRunFlags(cmd, rf, true)
	return cmd
}

func newInteractiveCommand(flags *Flags) *cobra.Command {
	rf := &RunFlags{}
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Prompt for words one at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, flags, rf)
		},
	}
	addRunFlags(cmd, rf, false)
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// runWords processes words as one run and prints progress and summary.
func runWords(cmd *cobra.Command, flags *Flags, rf *RunFlags, command string, words []string) error {
	if len(words) == 0 {
		return batch.ErrNoWords
	}
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	s := LoadSettings()
	s.Workers = rf.workers(cmd, s)
	rc := rf.RunContext(cmd, s)

	svc, err := buildServices(ctx, s, flags.Logger())
	if err != nil {
		return err
	}
	defer svc.Close()

	deps := svc.deps
	run := svc.startRun(ctx, command, rc)
	if run != nil {
		deps.Recorder = run
	}
	deps.OnOutcome = func(i int, o card.Outcome) {
		printOutcome(out, i+1, len(words), o)
	}

	fmt.Fprintf(out, "Generating %d card(s) in deck %q...\n", len(words), rc.Deck)
	outcomes, runErr := processor.New(deps).GenerateMany(ctx, words, rc)
	return finish(ctx, out, run, outcomes, runErr)
}

func runInteractive(cmd *cobra.Command, flags *Flags, rf *RunFlags) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	s := LoadSettings()
	rc := rf.RunContext(cmd, s)

	svc, err := buildServices(ctx, s, flags.Logger())
	if err != nil {
		return err
	}
	defer svc.Close()

	deps := svc.deps
	run := svc.startRun(ctx, "interactive", rc)
	if run != nil {
		deps.Recorder = run
	}
	p := processor.New(deps)
	if err := p.Preflight(ctx, rc); err != nil {
		return err
	}

	fmt.Fprintf(out, "Interactive mode, deck %q. Enter an empty line to finish.\n", rc.Deck)
	prompter := NewPrompter(cmd.InOrStdin(), out)

	var (
		outcomes []card.Outcome
		abortErr error
	)
	for ctx.Err() == nil {
		word, ok := prompter.Word()
		if !ok {
			break
		}
		include := rc.IncludeImages
		if include {
			include = prompter.Confirm("Include images?", true)
		}
		o := p.GenerateOne(ctx, word, rc.WithImages(include))
		outcomes = append(outcomes, o)
		printOutcome(out, len(outcomes), 0, o)

		if err := p.StoreDown(ctx, o); err != nil {
			abortErr = fmt.Errorf("session aborted: %w", err)
			break
		}
	}

	if abortErr == nil {
		abortErr = ctx.Err()
	}
	return finish(ctx, out, run, outcomes, abortErr)
}

func finish(ctx context.Context, out io.Writer, run *journal.Run, outcomes []card.Outcome, runErr error) error {
	if len(outcomes) > 0 {
		PrintSummary(out, outcomes)
	}
	summary := card.Summarize(outcomes)
	if run != nil {
		if err := run.Finish(context.WithoutCancel(ctx), summary); err != nil {
			fmt.Fprintf(out, "warning: %v\n", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return ErrWordsFailed
	}
	return nil
}
