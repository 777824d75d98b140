package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PiazzaSanPietro/agvn/internal/continuity"
)

// clearConfirmation is the text the user must type to confirm a clear.
const clearConfirmation = "CLEAR"

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every chapter and script line",
		Long: `Delete every chapter and script line and reset the id counters, so the
next chapter is chapter 1. The database file is vacuumed afterwards.

Without --yes the command asks for confirmation and only proceeds when
CLEAR is typed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

// clearResult is the JSON payload of the clear command.
type clearResult struct {
	Cleared     bool   `json:"cleared"`
	VacuumError string `json:"vacuum_error,omitempty"`
}

func runClear(opts *ClearOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if !opts.Yes {
		// Keep stdout clean for JSON output.
		prompt := cmd.OutOrStdout()
		if opts.Format == "json" {
			prompt = cmd.ErrOrStderr()
		}
		if !confirmClear(prompt, cmd.InOrStdin()) {
			return formatter.Render(clearResult{Cleared: false}, func(w io.Writer) {
				fmt.Fprintln(w, "Database clear cancelled.")
			})
		}
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cleared, err := st.Clear(commandContext(cmd))
	switch {
	case !cleared && err != nil:
		formatter.Error(ErrCodeStore, fmt.Sprintf("Error during database clear: %v", err), nil)
		return WrapExitError(ExitFailure, "database clear failed", err)
	case !cleared:
		formatter.Error(ErrCodeClear, "Database clear failed - rows remain after delete", nil)
		return WrapExitError(ExitFailure, "database clear failed", continuity.ErrResetIncomplete)
	}

	result := clearResult{Cleared: true}
	if err != nil {
		// The rows are gone; only reclaiming space failed.
		result.VacuumError = err.Error()
	}

	return formatter.Render(result, func(w io.Writer) {
		successStyle.Fprintln(w, "✅ Database cleared successfully!")
		fmt.Fprintln(w, "- All chapters and scripts deleted")
		fmt.Fprintln(w, "- AUTOINCREMENT counters reset to 1")
		if result.VacuumError == "" {
			fmt.Fprintln(w, "- Database vacuumed and reorganized")
		} else {
			warningStyle.Fprintf(w, "- Database vacuum failed: %s\n", result.VacuumError)
		}
	})
}

// confirmClear prints the warning and reads one line of input. Only the
// exact confirmation text, surrounding whitespace aside, proceeds.
func confirmClear(w io.Writer, r io.Reader) bool {
	warningStyle.Fprintln(w, "⚠️  WARNING: This will permanently delete ALL data from the database!")
	fmt.Fprintln(w, "This action cannot be undone.")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Type '%s' to confirm database clear: ", clearConfirmation)

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	fmt.Fprintln(w)
	return strings.TrimSpace(line) == clearConfirmation
}
