package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/PiazzaSanPietro/agvn/internal/story"
	"github.com/PiazzaSanPietro/agvn/internal/testutil"
)

// createTestStore creates a file-backed store driven by a step clock that
// starts at testutil.Epoch and advances one second per timestamp.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithClock(testutil.NewStepClock().Now)}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func line(role, emotion, script string) story.Line {
	return story.Line{Role: role, Emotion: story.Emotion(emotion), Script: script}
}

// mustSave saves a chapter and fails the test on error.
func mustSave(t *testing.T, s *Store, background string, lines ...story.Line) int64 {
	t.Helper()
	id, err := s.SaveChapter(context.Background(), story.Background(background), lines)
	if err != nil {
		t.Fatalf("SaveChapter() failed: %v", err)
	}
	return id
}
