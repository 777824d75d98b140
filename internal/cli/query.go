package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PiazzaSanPietro/agvn/internal/store"
	"github.com/PiazzaSanPietro/agvn/internal/story"
)

// Error codes reported by commands.
const (
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeStore    = "STORE_ERROR"
	ErrCodeBadArg   = "INVALID_ARGUMENT"
	ErrCodeGenerate = "GENERATION_FAILED"
	ErrCodeClear    = "CLEAR_INCOMPLETE"
	ErrCodeNoAPIKey = "MISSING_API_KEY"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long: `Show the number of stored chapters and script lines, and the creation
time range of the stored chapters.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(commandContext(cmd))
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read statistics", err)
	}

	return formatter.Render(stats, func(w io.Writer) { renderStats(w, stats) })
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Limit int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored chapters",
		Long: `List stored chapters in story order with their background, line count,
creation time and a preview of the first line.

Example:
  agvn list
  agvn list --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show at most this many chapters (0 for all)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d: must not be negative", opts.Limit))
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	chapters, err := st.AllChapters(commandContext(cmd))
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list chapters", err)
	}
	if opts.Limit > 0 && len(chapters) > opts.Limit {
		chapters = chapters[:opts.Limit]
	}

	return formatter.Render(chapters, func(w io.Writer) { renderChapterList(w, chapters) })
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <chapter-id>",
		Short:         "Show one chapter with all its script lines",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
}

func runShow(opts *RootOptions, rawID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		formatter.Error(ErrCodeBadArg, fmt.Sprintf("invalid chapter id %q", rawID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid chapter id %q", rawID))
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	chapter, err := st.GetChapter(commandContext(cmd), id)
	if store.IsNotFound(err) {
		formatter.Error(ErrCodeNotFound, fmt.Sprintf("Chapter %d not found", id), nil)
		return WrapExitError(ExitFailure, "chapter not found", err)
	}
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read chapter", err)
	}

	return formatter.Render(chapter, func(w io.Writer) { renderChapter(w, chapter) })
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <role>",
		Short: "Find script lines by character",
		Long: `Find every script line whose role contains the given text. Matching
ignores case, including for non-Latin scripts.

Example:
  agvn search seraphina
  agvn search 지훈`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, args[0], cmd)
		},
	}
}

// searchResult is the JSON payload of the search command.
type searchResult struct {
	Role    string            `json:"role"`
	Count   int               `json:"count"`
	Matches []story.RoleMatch `json:"matches"`
}

func runSearch(opts *RootOptions, role string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	matches, err := st.SearchLinesByRole(commandContext(cmd), role)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to search scripts", err)
	}

	result := searchResult{Role: role, Count: len(matches), Matches: matches}
	return formatter.Render(result, func(w io.Writer) { renderSearch(w, role, matches) })
}

// ConcatOptions holds flags for the concat command.
type ConcatOptions struct {
	*RootOptions
	LimitChars int
}

// NewConcatCommand creates the concat command.
func NewConcatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConcatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "concat",
		Short: "Show the continuity text sent to the generator",
		Long: `Show every stored line as "role: script" in story order, exactly as it
is passed to the generator as the previous story.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConcat(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.LimitChars, "limit-chars", 0, "print at most this many characters (0 for all)")

	return cmd
}

// concatResult is the JSON payload of the concat command.
type concatResult struct {
	Length int    `json:"length"`
	Lines  int    `json:"lines"`
	Text   string `json:"text"`
}

func runConcat(opts *ConcatOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.LimitChars < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid limit %d: must not be negative", opts.LimitChars))
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	text, err := st.Continuity(commandContext(cmd))
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read continuity", err)
	}

	result := concatResult{Length: len([]rune(text)), Lines: lineCount(text), Text: text}
	return formatter.Render(result, func(w io.Writer) { renderConcat(w, text, opts.LimitChars) })
}
