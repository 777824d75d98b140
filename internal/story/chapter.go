package story

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Line is one role-attributed utterance or narration as produced by a
// generator or an import, before the store assigns identity and position.
type Line struct {
	Role    string  `json:"role" yaml:"role"`
	Emotion Emotion `json:"emotion" yaml:"emotion"`
	Script  string  `json:"script" yaml:"script"`
}

// String renders the line in continuity form, "role: script".
func (l Line) String() string {
	return l.Role + ": " + l.Script
}

// StructuredChapter is the shape a generator returns for one chapter.
type StructuredChapter struct {
	SceneBackground Background `json:"scene_background" yaml:"scene_background"`
	Scripts         []Line     `json:"scripts" yaml:"scripts"`
}

// ErrEmptyChapter is returned by Validate for a chapter with no lines.
var ErrEmptyChapter = errors.New("chapter has no script lines")

// Validate checks that c is well-formed generator output: a scene
// background (not BackgroundUnknown), at least one line, and a valid
// emotion on every line.
func (c StructuredChapter) Validate() error {
	if !c.SceneBackground.IsScene() {
		return fmt.Errorf("invalid scene background %q", string(c.SceneBackground))
	}
	if len(c.Scripts) == 0 {
		return ErrEmptyChapter
	}
	for i, line := range c.Scripts {
		if !line.Emotion.Valid() {
			return fmt.Errorf("line %d: unknown emotion %q", i, string(line.Emotion))
		}
	}
	return nil
}

// Transcript renders the lines newline-joined in continuity form.
func (c StructuredChapter) Transcript() string {
	return RenderLines(c.Scripts)
}

// RenderLines joins lines in "role: script" form with newlines.
func RenderLines(lines []Line) string {
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = line.String()
	}
	return strings.Join(rendered, "\n")
}

// Chapter is a persisted chapter with its lines in order_index order.
type Chapter struct {
	ID              int64        `json:"id"`
	SceneBackground Background   `json:"scene_background"`
	CreatedAt       time.Time    `json:"created_at"`
	Scripts         []StoredLine `json:"scripts"`
}

// Lines returns the chapter's lines without storage identity.
func (c Chapter) Lines() []Line {
	lines := make([]Line, len(c.Scripts))
	for i, s := range c.Scripts {
		lines[i] = s.Line()
	}
	return lines
}

// StoredLine is a persisted script line.
type StoredLine struct {
	ID         int64   `json:"id"`
	ChapterID  int64   `json:"chapter_id"`
	Role       string  `json:"role"`
	Emotion    Emotion `json:"emotion"`
	Script     string  `json:"script"`
	OrderIndex int     `json:"order_index"`
}

// Line strips storage identity from s.
func (s StoredLine) Line() Line {
	return Line{Role: s.Role, Emotion: s.Emotion, Script: s.Script}
}

// RoleMatch is a search hit: a stored line plus the chapter it belongs to.
type RoleMatch struct {
	ChapterID       int64      `json:"chapter_id"`
	SceneBackground Background `json:"scene_background"`
	CreatedAt       time.Time  `json:"created_at"`
	Line            StoredLine `json:"line"`
}

// Stats is a read-only aggregate over the store.
// The timestamps are nil when the store holds no chapters.
type Stats struct {
	ChapterCount      int        `json:"total_chapters"`
	LineCount         int        `json:"total_scripts"`
	EarliestCreatedAt *time.Time `json:"earliest_chapter"`
	LatestCreatedAt   *time.Time `json:"latest_chapter"`
}

// Snapshot is a full, read-only export of the store.
type Snapshot struct {
	ExportID        string    `json:"export_id"`
	ExportTimestamp time.Time `json:"export_timestamp"`
	TotalChapters   int       `json:"total_chapters"`
	Chapters        []Chapter `json:"chapters"`
}
