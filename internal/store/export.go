package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/PiazzaSanPietro/agvn/internal/story"
)

// Export builds a snapshot of every chapter and its lines. It does not
// modify the store.
func (s *Store) Export(ctx context.Context) (story.Snapshot, error) {
	chapters, err := s.AllChapters(ctx)
	if err != nil {
		return story.Snapshot{}, err
	}
	return story.Snapshot{
		ExportID:        s.newID(),
		ExportTimestamp: s.now().UTC(),
		TotalChapters:   len(chapters),
		Chapters:        chapters,
	}, nil
}

// WriteExport writes the snapshot from Export to w as indented JSON.
// Non-ASCII text and markup characters are written as-is.
func (s *Store) WriteExport(ctx context.Context, w io.Writer) error {
	snap, err := s.Export(ctx)
	if err != nil {
		return err
	}
	return EncodeSnapshot(w, snap)
}

// EncodeSnapshot renders snap in the export document format.
func EncodeSnapshot(w io.Writer, snap story.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}
