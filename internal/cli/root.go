// Package cli implements the agvn command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PiazzaSanPietro/agvn/internal/config"
	"github.com/PiazzaSanPietro/agvn/internal/logging"
	"github.com/PiazzaSanPietro/agvn/internal/workflow"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogFormat string // "console" | "json"
	Database  string // overrides Config.DBPath when set

	// Config is loaded from the environment before any subcommand runs.
	Config config.Config

	// Generator overrides the Gemini client (for testing).
	// If nil, one is built from Config.
	Generator workflow.Generator

	// IDs overrides the request id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs workflow.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogFormats defines the allowed log formats.
var ValidLogFormats = []string{logging.FormatConsole, logging.FormatJSON}

// NewRootCommand creates the root command for the agvn CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "agvn",
		Short: "agvn - generated visual novel chapters",
		Long: `Generate visual novel chapters with Gemini and keep them in a local
continuity store.

Every generated chapter is saved with its script lines. The stored story is
fed back to the generator as context for the next chapter, and can be
queried, searched, exported and imported from this tool.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flags
			if !isOneOf(opts.Format, ValidFormats) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !isOneOf(opts.LogFormat, ValidLogFormats) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, ValidLogFormats)
			}

			cfg, err := config.Load()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", logging.FormatConsole, "log format (console|json)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $AGVN_DB_PATH or data/scripts.db)")

	// Add subcommands
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewConcatCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRosterCommand(opts))

	return cmd
}

// isOneOf checks if value is one of the allowed values.
func isOneOf(value string, allowed []string) bool {
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}
