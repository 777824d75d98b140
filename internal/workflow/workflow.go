// Package workflow runs one chapter generation end to end.
//
// A request carries a story index. The workflow prepares continuity context
// for that index, prompts the generator, validates and canonicalizes the
// returned chapter, and persists it. A chapter is saved only after the
// generator returned a complete, valid result; a failed request leaves the
// store exactly as the continuity step left it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/PiazzaSanPietro/agvn/internal/continuity"
	"github.com/PiazzaSanPietro/agvn/internal/debuglog"
	"github.com/PiazzaSanPietro/agvn/internal/story"
)

// DefaultTimeout bounds a generator call when Deps.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// Generation is a generator's answer: the decoded chapter and the raw text
// it was decoded from.
type Generation struct {
	Chapter story.StructuredChapter
	Raw     string
}

// Generator produces one chapter from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Preparer supplies continuity context for a request index.
type Preparer interface {
	Prepare(ctx context.Context, requestIndex int) (continuity.Context, error)
}

// ChapterSaver persists a chapter.
type ChapterSaver interface {
	SaveChapter(ctx context.Context, background story.Background, lines []story.Line) (int64, error)
}

// Canonicalizer maps raw role labels to canonical character names.
type Canonicalizer interface {
	Normalize(name string) string
}

// Deps are the collaborators of a Workflow. Assembler, Store, Roster and
// Generator are required; the rest have defaults.
type Deps struct {
	Assembler Preparer
	Store     ChapterSaver
	Roster    Canonicalizer
	Generator Generator
	Prompts   PromptSource   // default: no base prompt
	Debug     debuglog.Sink  // default: debuglog.Nop
	IDs       IDGenerator    // default: UUIDv7Generator
	Logger    zerolog.Logger // zero value logs nothing
	Timeout   time.Duration  // default: DefaultTimeout
}

// Result is a successfully generated and persisted chapter.
type Result struct {
	RequestID string                  `json:"request_id"`
	ChapterID int64                   `json:"chapter_id"`
	Chapter   story.StructuredChapter `json:"chapter"`
}

// Workflow generates and stores chapters.
type Workflow struct {
	deps Deps
}

// New creates a Workflow, filling in defaults for optional dependencies.
func New(deps Deps) (*Workflow, error) {
	switch {
	case deps.Assembler == nil:
		return nil, errors.New("workflow: assembler is required")
	case deps.Store == nil:
		return nil, errors.New("workflow: store is required")
	case deps.Roster == nil:
		return nil, errors.New("workflow: roster is required")
	case deps.Generator == nil:
		return nil, errors.New("workflow: generator is required")
	}

	if deps.Prompts == nil {
		deps.Prompts = StaticPrompts("")
	}
	if deps.Debug == nil {
		deps.Debug = debuglog.Nop{}
	}
	if deps.IDs == nil {
		deps.IDs = UUIDv7Generator{}
	}
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}

	return &Workflow{deps: deps}, nil
}

// Generate produces, stores and returns the chapter for requestIndex.
//
// Index 0 or 1 starts a new story and clears the store first. Generator and
// validation failures return a *GenerationError and persist nothing. A
// storage failure while saving the chapter is returned as is.
func (w *Workflow) Generate(ctx context.Context, requestIndex int) (Result, error) {
	requestID := w.deps.IDs.Generate()
	log := w.deps.Logger.With().
		Str("request_id", requestID).
		Int("request_index", requestIndex).
		Logger()

	base, err := w.deps.Prompts.BaseWorld()
	if err != nil {
		log.Warn().Err(err).Msg("base world prompt unavailable, continuing without it")
		base = ""
	}

	prepared, err := w.deps.Assembler.Prepare(ctx, requestIndex)
	if err != nil {
		return Result{}, fmt.Errorf("prepare continuity: %w", err)
	}

	prompt := BuildPrompt(base, prepared.Text)
	w.deps.Debug.Write(debuglog.ChatContext, prompt)
	log.Debug().Int("prompt_bytes", len(prompt)).Bool("first", prepared.First).Msg("prompting generator")

	genCtx, cancel := context.WithTimeout(ctx, w.deps.Timeout)
	gen, err := w.deps.Generator.Generate(genCtx, prompt)
	cancel()
	if err != nil {
		stage := StageGenerate
		if errors.Is(err, ErrInvalidOutput) {
			stage = StageValidate
		}
		log.Error().Err(err).Str("stage", string(stage)).Msg("generator failed")
		return Result{}, &GenerationError{Stage: stage, RequestID: requestID, Err: err}
	}

	chapter := gen.Chapter
	if err := chapter.Validate(); err != nil {
		log.Error().Err(err).Msg("generator returned invalid chapter")
		return Result{}, &GenerationError{Stage: StageValidate, RequestID: requestID, Err: err}
	}

	lines := make([]story.Line, len(chapter.Scripts))
	for i, line := range chapter.Scripts {
		line.Role = w.deps.Roster.Normalize(line.Role)
		lines[i] = line
	}
	chapter.Scripts = lines

	w.deps.Debug.Write(debuglog.Transcript, chapter.Transcript())
	w.deps.Debug.Write(debuglog.ResponseText, gen.Raw)

	chapterID, err := w.deps.Store.SaveChapter(ctx, chapter.SceneBackground, chapter.Scripts)
	if err != nil {
		log.Error().Err(err).Msg("save chapter failed")
		return Result{}, fmt.Errorf("save chapter: %w", err)
	}

	log.Info().
		Int64("chapter_id", chapterID).
		Str("scene_background", chapter.SceneBackground.String()).
		Int("lines", len(chapter.Scripts)).
		Msg("chapter generated")

	return Result{RequestID: requestID, ChapterID: chapterID, Chapter: chapter}, nil
}
