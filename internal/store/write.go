package store

import (
	"context"
	"fmt"

	"github.com/PiazzaSanPietro/agvn/internal/story"
)

// SaveChapter writes a chapter and its lines in one transaction and returns
// the new chapter id. Lines receive order_index values 0..N-1 in the order
// given. On any error nothing is visible.
//
// The background and every emotion must belong to their closed sets;
// violations wrap ErrInvalidChapter and are rejected before the transaction
// starts.
func (s *Store) SaveChapter(ctx context.Context, background story.Background, lines []story.Line) (int64, error) {
	const op = "save chapter"

	if !background.Valid() {
		return 0, persistErr(op, fmt.Errorf("%w: scene background %q", ErrInvalidChapter, string(background)))
	}
	for i, line := range lines {
		if !line.Emotion.Valid() {
			return 0, persistErr(op, fmt.Errorf("%w: line %d emotion %q", ErrInvalidChapter, i, string(line.Emotion)))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistErr(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO chapters (scene_background, created_at)
		VALUES (?, ?)
	`, string(background), s.timestamp())
	if err != nil {
		return 0, persistErr(op, fmt.Errorf("insert chapter: %w", err))
	}

	chapterID, err := result.LastInsertId()
	if err != nil {
		return 0, persistErr(op, fmt.Errorf("last insert id: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scripts (chapter_id, role, emotion, script, order_index)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, persistErr(op, fmt.Errorf("prepare script insert: %w", err))
	}
	defer stmt.Close()

	for idx, line := range lines {
		if _, err := stmt.ExecContext(ctx, chapterID, line.Role, string(line.Emotion), line.Script, idx); err != nil {
			return 0, persistErr(op, fmt.Errorf("insert script %d: %w", idx, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, persistErr(op, fmt.Errorf("commit: %w", err))
	}

	return chapterID, nil
}

// Clear removes every chapter and line and resets both id counters so the
// next chapter is id 1. The deletes and the counter reset share one
// transaction: the store is either fully cleared or unchanged.
//
// After commit the row counts are checked. A nonzero count is reported as
// false with a nil error so the caller can retry or alert. VACUUM then runs
// outside the transaction to reclaim space; its failure is returned as an
// error, but the clear itself has already taken effect.
func (s *Store) Clear(ctx context.Context) (bool, error) {
	const op = "clear"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, persistErr(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	statements := []string{
		"DELETE FROM scripts",
		"DELETE FROM chapters",
		"DELETE FROM sqlite_sequence WHERE name IN ('chapters', 'scripts')",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, persistErr(op, fmt.Errorf("%s: %w", stmt, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return false, persistErr(op, fmt.Errorf("commit: %w", err))
	}

	chapters, lines, err := s.counts(ctx)
	if err != nil {
		return false, persistErr(op, fmt.Errorf("verify: %w", err))
	}
	if chapters != 0 || lines != 0 {
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return true, persistErr(op, fmt.Errorf("vacuum: %w", err))
	}

	return true, nil
}

func (s *Store) counts(ctx context.Context) (chapters, lines int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM chapters), (SELECT COUNT(*) FROM scripts)
	`).Scan(&chapters, &lines)
	return chapters, lines, err
}
