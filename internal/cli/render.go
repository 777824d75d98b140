package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/PiazzaSanPietro/agvn/internal/story"
)

// Text output styles. fatih/color disables them when stdout is not a
// terminal.
var (
	headingStyle = color.New(color.FgCyan, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	successStyle = color.New(color.FgGreen)
	failureStyle = color.New(color.FgRed)
)

const (
	separator        = "--------------------------------------------------"
	firstLinePreview = 100
)

func heading(w io.Writer, format string, args ...any) {
	headingStyle.Fprintf(w, format, args...)
	fmt.Fprintln(w)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.DateTime)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) (string, bool) {
	if utf8.RuneCountInString(s) <= n {
		return s, false
	}
	return string([]rune(s)[:n]), true
}

func renderStats(w io.Writer, stats story.Stats) {
	heading(w, "=== Database Statistics ===")
	fmt.Fprintf(w, "Total chapters: %d\n", stats.ChapterCount)
	fmt.Fprintf(w, "Total scripts: %d\n", stats.LineCount)
	if stats.EarliestCreatedAt == nil || stats.LatestCreatedAt == nil {
		fmt.Fprintln(w, "Date range: n/a")
	} else {
		fmt.Fprintf(w, "Date range: %s to %s\n", formatTime(*stats.EarliestCreatedAt), formatTime(*stats.LatestCreatedAt))
	}
	fmt.Fprintln(w)
}

func renderChapterList(w io.Writer, chapters []story.Chapter) {
	heading(w, "=== Chapters ===")
	for _, c := range chapters {
		fmt.Fprintf(w, "ID: %d\n", c.ID)
		fmt.Fprintf(w, "Background: %s\n", c.SceneBackground)
		fmt.Fprintf(w, "Scripts: %d\n", len(c.Scripts))
		fmt.Fprintf(w, "Created: %s\n", formatTime(c.CreatedAt))
		if len(c.Scripts) == 0 {
			fmt.Fprintln(w, "First line: (none)")
		} else {
			first := c.Scripts[0]
			preview, cut := truncate(first.Script, firstLinePreview)
			if cut {
				preview += "..."
			}
			fmt.Fprintf(w, "First line: %s: %s\n", first.Role, preview)
		}
		fmt.Fprintln(w, separator)
	}
}

func renderChapter(w io.Writer, c story.Chapter) {
	heading(w, "=== Chapter %d ===", c.ID)
	fmt.Fprintf(w, "Background: %s\n", c.SceneBackground)
	fmt.Fprintf(w, "Created: %s\n", formatTime(c.CreatedAt))
	fmt.Fprintf(w, "Scripts: %d\n", len(c.Scripts))
	fmt.Fprintln(w)
	heading(w, "=== Scripts ===")
	for i, s := range c.Scripts {
		fmt.Fprintf(w, "%2d. %s (%s)\n", i+1, s.Role, s.Emotion)
		fmt.Fprintf(w, "    %s\n", s.Script)
		fmt.Fprintln(w)
	}
}

func renderSearch(w io.Writer, role string, matches []story.RoleMatch) {
	heading(w, "=== Scripts for '%s' ===", role)
	fmt.Fprintf(w, "Found %d scripts\n", len(matches))
	fmt.Fprintln(w)

	current := int64(-1)
	for _, m := range matches {
		if m.ChapterID != current {
			current = m.ChapterID
			fmt.Fprintf(w, "--- Chapter %d (%s) ---\n", m.ChapterID, m.SceneBackground)
		}
		fmt.Fprintf(w, "%s (%s):\n", m.Line.Role, m.Line.Emotion)
		fmt.Fprintf(w, "  %s\n", m.Line.Script)
		fmt.Fprintln(w)
	}
}

// renderConcat prints the continuity text, cut to limit runes when limit is
// positive and the text is longer.
func renderConcat(w io.Writer, text string, limit int) {
	heading(w, "=== Concatenated Scripts ===")
	fmt.Fprintf(w, "Total length: %d characters\n", utf8.RuneCountInString(text))
	fmt.Fprintf(w, "Number of script lines: %d\n", lineCount(text))
	fmt.Fprintln(w)

	if limit > 0 {
		if head, cut := truncate(text, limit); cut {
			heading(w, "=== First %d characters ===", limit)
			fmt.Fprintln(w, head)
			fmt.Fprintln(w, "...")
			return
		}
	}
	heading(w, "=== Complete Scripts ===")
	fmt.Fprintln(w, text)
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Split(strings.TrimSuffix(text, "\n"), "\n"))
}
