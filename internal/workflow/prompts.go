package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// BaseWorldFile is the prompt file describing the cast and setting.
const BaseWorldFile = "base_world.prompt"

// chapterInstruction closes every prompt. The output language is fixed to
// Korean.
const chapterInstruction = "Based on the characters and world-building provided above, " +
	"please write a script for a visual novel dating simulation. " +
	"The script should be one chapter long and consist of the narrator's descriptions " +
	"and the characters' dialogue. 한국어로 작성되어야 합니다."

// ErrPromptMissing is returned by a PromptSource with no base world prompt.
var ErrPromptMissing = errors.New("base world prompt missing")

// PromptSource provides the base world prompt.
type PromptSource interface {
	BaseWorld() (string, error)
}

// DirPrompts reads prompts from a directory.
type DirPrompts struct {
	Dir string
}

// BaseWorld reads {Dir}/base_world.prompt. A missing file is reported as
// ErrPromptMissing.
func (p DirPrompts) BaseWorld() (string, error) {
	path := filepath.Join(p.Dir, BaseWorldFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", path, ErrPromptMissing)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// StaticPrompts serves a fixed base world prompt.
type StaticPrompts string

// BaseWorld implements PromptSource.
func (p StaticPrompts) BaseWorld() (string, error) {
	return string(p), nil
}

// BuildPrompt assembles the generator prompt from the base world prompt and
// the continuity text.
func BuildPrompt(base, continuity string) string {
	return base + "\n" + continuity + "\n---\n" + chapterInstruction
}
