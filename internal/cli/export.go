package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/PiazzaSanPietro/agvn/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole database as JSON",
		Long: `Export every chapter with its script lines as one JSON document.

The document is written to stdout unless --output is given. With
--format json the stdout document is wrapped in the standard response.
Missing parent directories of --output are created.

Example:
  agvn export > database_export.json
  agvn export -o database_export.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

// exportResult is the JSON payload of the export command when writing to a
// file.
type exportResult struct {
	Path          string `json:"path"`
	ExportID      string `json:"export_id"`
	TotalChapters int    `json:"total_chapters"`
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.Export(commandContext(cmd))
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to export database", err)
	}

	if opts.Output == "" {
		// Text mode writes the bare snapshot so it can be redirected to a file.
		var encodeErr error
		err := formatter.Render(snap, func(w io.Writer) {
			encodeErr = store.EncodeSnapshot(w, snap)
		})
		if err = errors.Join(err, encodeErr); err != nil {
			return WrapExitError(ExitFailure, "failed to write export", err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := store.EncodeSnapshot(&buf, snap); err != nil {
		return WrapExitError(ExitFailure, "failed to encode export", err)
	}
	if err := writeExportFile(opts.Output, buf.Bytes()); err != nil {
		formatter.Error(ErrCodeStore, fmt.Sprintf("writing output file: %v", err), nil)
		return WrapExitError(ExitFailure, "failed to write export", err)
	}
	formatter.VerboseLog("Exported %d chapters as %s", snap.TotalChapters, snap.ExportID)

	result := exportResult{Path: opts.Output, ExportID: snap.ExportID, TotalChapters: snap.TotalChapters}
	return formatter.Render(result, func(w io.Writer) {
		successStyle.Fprintf(w, "Database exported to %s\n", opts.Output)
	})
}

// writeExportFile writes data to path, creating missing parent directories.
func writeExportFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
