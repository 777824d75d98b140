package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a chapter from a captured response or transcript",
		Long: `Import one chapter from a file and append it to the story.

The file may hold a generator response (a JSON object with a "scripts" list,
as captured in response_text.log) or a plain transcript with one
"role: script" line per line (as captured in cutted_script_str.log). Roles
are canonicalized with the roster before saving. Use "-" to read stdin.

Example:
  agvn import logs/response_text.log
  agvn import logs/cutted_script_str.log`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

// importResult is the JSON payload of the import command.
type importResult struct {
	File     string `json:"file"`
	Imported int    `json:"imported"`
}

func runImport(opts *RootOptions, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		formatter.Error(ErrCodeBadArg, fmt.Sprintf("reading %s: %v", file, err), nil)
		return WrapExitError(ExitCommandError, "failed to read import file", err)
	}

	table, err := opts.roster()
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.Import(commandContext(cmd), data, table.Normalize)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to import chapter", err)
	}

	return formatter.Render(importResult{File: file, Imported: n}, func(w io.Writer) {
		if n == 0 {
			warningStyle.Fprintf(w, "No chapter found in %s, nothing imported\n", file)
			return
		}
		successStyle.Fprintf(w, "Imported %d chapter from %s\n", n, file)
	})
}
