package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PiazzaSanPietro/agvn/internal/story"
)

// Import loads one chapter from a previously captured generator artifact and
// returns the number of chapters saved (0 or 1).
//
// JSON input is accepted only as an object with a "scripts" key, decoded as a
// structured chapter; a missing scene_background becomes BackgroundUnknown.
// Other valid JSON imports nothing. Anything else is read as flat text: every
// line containing ':' is split at the first colon into role and script, with
// neutral emotion and an unknown background. Text without such lines imports
// nothing.
//
// normalize, when non-nil, is applied to every role before saving.
func (s *Store) Import(ctx context.Context, data []byte, normalize func(string) string) (int, error) {
	var (
		background story.Background
		lines      []story.Line
	)

	trimmed := bytes.TrimSpace(data)
	if json.Valid(trimmed) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return 0, nil // not an object
		}
		if _, ok := fields["scripts"]; !ok {
			return 0, nil
		}

		chapter := story.StructuredChapter{SceneBackground: story.BackgroundUnknown}
		if err := json.Unmarshal(trimmed, &chapter); err != nil {
			return 0, persistErr("import", fmt.Errorf("%w: %v", ErrInvalidChapter, err))
		}
		background, lines = chapter.SceneBackground, chapter.Scripts
	} else {
		background, lines = story.BackgroundUnknown, parseTranscript(string(trimmed))
		if len(lines) == 0 {
			return 0, nil
		}
	}

	if normalize != nil {
		for i := range lines {
			lines[i].Role = normalize(lines[i].Role)
		}
	}

	if _, err := s.SaveChapter(ctx, background, lines); err != nil {
		return 0, err
	}
	return 1, nil
}

// parseTranscript reads "role: script" lines as rendered by
// story.RenderLines.
func parseTranscript(text string) []story.Line {
	var lines []story.Line
	for _, raw := range strings.Split(text, "\n") {
		role, script, ok := strings.Cut(raw, ":")
		if !ok {
			continue
		}
		lines = append(lines, story.Line{
			Role:    strings.TrimSpace(role),
			Emotion: story.EmotionNeutral,
			Script:  strings.TrimSpace(script),
		})
	}
	return lines
}
