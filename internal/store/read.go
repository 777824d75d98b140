package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/PiazzaSanPietro/agvn/internal/story"
)

// ContinuityHeader prefixes the continuity text handed to the generator.
const ContinuityHeader = "Previous story:\n"

// chapterOrder is the ordering rule for every multi-chapter read.
const chapterOrder = "c.created_at ASC, c.id ASC"

// GetChapter retrieves a chapter with its lines sorted by order_index.
// Returns ErrNotFound if no chapter has the given id.
func (s *Store) GetChapter(ctx context.Context, id int64) (story.Chapter, error) {
	chapters, err := s.queryChapters(ctx, "get chapter", "WHERE c.id = ?", id)
	if err != nil {
		return story.Chapter{}, err
	}
	if len(chapters) == 0 {
		return story.Chapter{}, fmt.Errorf("chapter %d: %w", id, ErrNotFound)
	}
	return chapters[0], nil
}

// AllChapters returns every chapter with its lines, in chapter order.
// Returns an empty slice (not nil) when the store is empty.
func (s *Store) AllChapters(ctx context.Context) ([]story.Chapter, error) {
	return s.queryChapters(ctx, "all chapters", "")
}

// queryChapters loads chapters and their lines with a single LEFT JOIN so the
// result reflects one consistent read.
func (s *Store) queryChapters(ctx context.Context, op, where string, args ...any) ([]story.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.scene_background, c.created_at,
		       s.id, s.role, s.emotion, s.script, s.order_index
		FROM chapters c
		LEFT JOIN scripts s ON s.chapter_id = c.id
		`+where+`
		ORDER BY `+chapterOrder+`, s.order_index ASC
	`, args...)
	if err != nil {
		return nil, persistErr(op, fmt.Errorf("query chapters: %w", err))
	}
	defer rows.Close()

	chapters := []story.Chapter{}
	for rows.Next() {
		var (
			chapterID  int64
			background string
			createdAt  int64
			lineID     sql.NullInt64
			role       sql.NullString
			emotion    sql.NullString
			script     sql.NullString
			orderIndex sql.NullInt64
		)
		if err := rows.Scan(&chapterID, &background, &createdAt,
			&lineID, &role, &emotion, &script, &orderIndex); err != nil {
			return nil, persistErr(op, fmt.Errorf("scan chapter: %w", err))
		}

		if n := len(chapters); n == 0 || chapters[n-1].ID != chapterID {
			bg, err := story.ParseBackground(background)
			if err != nil {
				return nil, persistErr(op, fmt.Errorf("chapter %d: %w", chapterID, err))
			}
			chapters = append(chapters, story.Chapter{
				ID:              chapterID,
				SceneBackground: bg,
				CreatedAt:       fromMillis(createdAt),
				Scripts:         []story.StoredLine{},
			})
		}

		if !lineID.Valid {
			continue // chapter without lines
		}

		em, err := story.ParseEmotion(emotion.String)
		if err != nil {
			return nil, persistErr(op, fmt.Errorf("script %d: %w", lineID.Int64, err))
		}
		current := &chapters[len(chapters)-1]
		current.Scripts = append(current.Scripts, story.StoredLine{
			ID:         lineID.Int64,
			ChapterID:  chapterID,
			Role:       role.String,
			Emotion:    em,
			Script:     script.String,
			OrderIndex: int(orderIndex.Int64),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, persistErr(op, fmt.Errorf("iterate chapters: %w", err))
	}

	return chapters, nil
}

// SearchLinesByRole returns every line whose role contains substring,
// compared case-insensitively with Unicode case folding. Results are in
// chapter order, then order_index. An empty substring matches every line.
func (s *Store) SearchLinesByRole(ctx context.Context, substring string) ([]story.RoleMatch, error) {
	const op = "search lines by role"

	query := `
		SELECT c.id, c.scene_background, c.created_at,
		       s.id, s.role, s.emotion, s.script, s.order_index
		FROM chapters c
		JOIN scripts s ON s.chapter_id = c.id
	`
	var args []any
	if substring != "" {
		query += " WHERE instr(casefold(s.role), casefold(?)) > 0"
		args = append(args, substring)
	}
	query += " ORDER BY " + chapterOrder + ", s.order_index ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr(op, fmt.Errorf("query scripts: %w", err))
	}
	defer rows.Close()

	matches := []story.RoleMatch{}
	for rows.Next() {
		var (
			m          story.RoleMatch
			background string
			createdAt  int64
			emotion    string
		)
		if err := rows.Scan(&m.ChapterID, &background, &createdAt,
			&m.Line.ID, &m.Line.Role, &emotion, &m.Line.Script, &m.Line.OrderIndex); err != nil {
			return nil, persistErr(op, fmt.Errorf("scan script: %w", err))
		}
		if m.SceneBackground, err = story.ParseBackground(background); err != nil {
			return nil, persistErr(op, fmt.Errorf("chapter %d: %w", m.ChapterID, err))
		}
		if m.Line.Emotion, err = story.ParseEmotion(emotion); err != nil {
			return nil, persistErr(op, fmt.Errorf("script %d: %w", m.Line.ID, err))
		}
		m.CreatedAt = fromMillis(createdAt)
		m.Line.ChapterID = m.ChapterID
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, persistErr(op, fmt.Errorf("iterate scripts: %w", err))
	}

	return matches, nil
}

// Continuity renders every stored line as "role: script", in chapter order
// then order_index, joined by newlines and prefixed with ContinuityHeader.
// The exact layout is what the generator expects as prior context.
func (s *Store) Continuity(ctx context.Context) (string, error) {
	const op = "continuity"

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.role, s.script
		FROM chapters c
		JOIN scripts s ON s.chapter_id = c.id
		ORDER BY `+chapterOrder+`, s.order_index ASC
	`)
	if err != nil {
		return "", persistErr(op, fmt.Errorf("query scripts: %w", err))
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line story.Line
		if err := rows.Scan(&line.Role, &line.Script); err != nil {
			return "", persistErr(op, fmt.Errorf("scan script: %w", err))
		}
		lines = append(lines, line.String())
	}

	if err := rows.Err(); err != nil {
		return "", persistErr(op, fmt.Errorf("iterate scripts: %w", err))
	}

	return ContinuityHeader + strings.Join(lines, "\n"), nil
}

// Stats returns row counts and the creation time range of stored chapters.
func (s *Store) Stats(ctx context.Context) (story.Stats, error) {
	const op = "stats"

	var (
		stats    story.Stats
		earliest sql.NullInt64
		latest   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM chapters),
		       (SELECT COUNT(*) FROM scripts),
		       (SELECT MIN(created_at) FROM chapters),
		       (SELECT MAX(created_at) FROM chapters)
	`).Scan(&stats.ChapterCount, &stats.LineCount, &earliest, &latest)
	if err != nil {
		return story.Stats{}, persistErr(op, err)
	}

	if earliest.Valid {
		t := fromMillis(earliest.Int64)
		stats.EarliestCreatedAt = &t
	}
	if latest.Valid {
		t := fromMillis(latest.Int64)
		stats.LatestCreatedAt = &t
	}

	return stats, nil
}

// IsNotFound reports whether err marks a missing chapter.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
