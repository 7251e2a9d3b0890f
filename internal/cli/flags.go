package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"codeberg.org/snonux/smartdeck/internal/card"
)

// Flags holds the global command-line flag values
type Flags struct {
	CfgFile   string
	LogLevel  string
	LogFormat string

	logger *slog.Logger
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Logger returns the logger set up for the running command.
func (f *Flags) Logger() *slog.Logger {
	if f.logger == nil {
		return slog.Default()
	}
	return f.logger
}

// RunFlags are shared by the commands that generate cards
type RunFlags struct {
	Deck     string
	Model    string
	NoImages bool
	Tags     []string
	Force    bool
	Workers  int
}

func addRunFlags(cmd *cobra.Command, rf *RunFlags, withWorkers bool) {
	cmd.Flags().StringVarP(&rf.Deck, "deck", "d", card.DefaultDeck, "Target Anki deck name")
	cmd.Flags().StringVarP(&rf.Model, "model", "m", card.DefaultModel, "Anki note type/model name")
	cmd.Flags().BoolVar(&rf.NoImages, "no-images", false, "Skip image search for all cards")
	cmd.Flags().StringArrayVarP(&rf.Tags, "tags", "t", nil, "Add custom tags to all cards (repeatable)")
	cmd.Flags().BoolVarP(&rf.Force, "force", "f", false, "Update cards that already exist")
	if withWorkers {
		cmd.Flags().IntVar(&rf.Workers, "workers", 1, "Number of words processed concurrently")
	}
}

// RunContext builds the run context. Deck and model come from the flags
// when given explicitly and from the configuration otherwise.
func (rf *RunFlags) RunContext(cmd *cobra.Command, s Settings) card.RunContext {
	deck := preferFlag(cmd.Flags(), "deck", rf.Deck, s.Anki.Deck)
	model := preferFlag(cmd.Flags(), "model", rf.Model, s.Anki.Model)
	return card.NewRunContext(deck, model, rf.Tags, !rf.NoImages, rf.Force)
}

// preferFlag returns the flag value when the flag was given explicitly or
// nothing is configured.
func preferFlag(fs *pflag.FlagSet, name, flagValue, configValue string) string {
	if fs.Changed(name) || configValue == "" {
		return flagValue
	}
	return configValue
}

// workers returns the worker count, preferring an explicit flag.
func (rf *RunFlags) workers(cmd *cobra.Command, s Settings) int {
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		return rf.Workers
	}
	return s.Workers
}
