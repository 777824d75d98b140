package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PiazzaSanPietro/agvn/internal/config"
	"github.com/PiazzaSanPietro/agvn/internal/workflow"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Index int
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and store the next chapter",
		Long: `Generate one chapter with Gemini and append it to the story.

Index 0 or 1 starts a new story: the database is cleared first and the
generator gets no previous story. Any higher index continues the stored
story. Requires GOOGLE_API_KEY.

Example:
  agvn generate --index 1
  agvn generate --index 2 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Index, "index", "i", 0, "request index; 0 or 1 starts a new story (required)")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Index < 0 {
		formatter.Error(ErrCodeBadArg, fmt.Sprintf("invalid index %d: must not be negative", opts.Index), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid index %d", opts.Index))
	}

	logger, err := opts.logger(cmd)
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("error closing database")
		}
	}()

	wf, err := opts.newWorkflow(st, logger)
	if errors.Is(err, config.ErrMissingAPIKey) {
		formatter.Error(ErrCodeNoAPIKey, err.Error(), nil)
		return WrapExitError(ExitCommandError, "generator not configured", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up generation", err)
	}

	result, err := wf.Generate(commandContext(cmd), opts.Index)
	if err != nil {
		var genErr *workflow.GenerationError
		if errors.As(err, &genErr) {
			formatter.Error(ErrCodeGenerate, err.Error(), map[string]string{
				"stage":      string(genErr.Stage),
				"request_id": genErr.RequestID,
			})
			return WrapExitError(ExitFailure, "generation failed", err)
		}
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "generation failed", err)
	}

	return formatter.Render(result, func(w io.Writer) { renderGeneration(w, result) })
}

func renderGeneration(w io.Writer, result workflow.Result) {
	heading(w, "=== Chapter %d ===", result.ChapterID)
	fmt.Fprintf(w, "Request: %s\n", result.RequestID)
	fmt.Fprintf(w, "Background: %s\n", result.Chapter.SceneBackground)
	fmt.Fprintf(w, "Scripts: %d\n", len(result.Chapter.Scripts))
	fmt.Fprintln(w)
	for i, line := range result.Chapter.Scripts {
		fmt.Fprintf(w, "%2d. %s (%s)\n", i+1, line.Role, line.Emotion)
		fmt.Fprintf(w, "    %s\n", line.Script)
		fmt.Fprintln(w)
	}
}
