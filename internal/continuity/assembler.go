// Package continuity decides what story context accompanies a generation
// request.
//
// Request index 0 or 1 starts a new story: the store is cleared and the
// context is empty. Any later index continues the stored story and receives
// its full continuity text. Nothing is truncated or summarized, so the text
// grows with the story; its size is logged on every continuation.
package continuity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrResetIncomplete is returned when a new story was requested but the store
// still held rows after clearing.
var ErrResetIncomplete = errors.New("story reset incomplete")

// Source is the part of the store the assembler reads and resets.
type Source interface {
	Clear(ctx context.Context) (bool, error)
	Continuity(ctx context.Context) (string, error)
}

// Context is the prior-story context for one request.
type Context struct {
	RequestIndex int
	First        bool   // the store was reset for a new story
	Text         string // empty for the first request
}

// Assembler prepares continuity context from a Source.
type Assembler struct {
	src    Source
	logger zerolog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Assembler) { a.logger = logger }
}

// New creates an Assembler reading from src.
func New(src Source, opts ...Option) *Assembler {
	a := &Assembler{src: src, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsFirst reports whether requestIndex starts a new story.
func IsFirst(requestIndex int) bool {
	return requestIndex <= 1
}

// Prepare returns the context for the request at requestIndex.
//
// A first request clears the source. If the clear reports leftover rows the
// result is ErrResetIncomplete. A clear whose rows are gone but whose space
// reclamation failed is logged and treated as success.
func (a *Assembler) Prepare(ctx context.Context, requestIndex int) (Context, error) {
	out := Context{RequestIndex: requestIndex, First: IsFirst(requestIndex)}

	if out.First {
		ok, err := a.src.Clear(ctx)
		switch {
		case !ok && err != nil:
			return Context{}, fmt.Errorf("reset story: %w", err)
		case !ok:
			return Context{}, ErrResetIncomplete
		case err != nil:
			a.logger.Warn().Err(err).Int("request_index", requestIndex).Msg("story reset but space not reclaimed")
		}
		a.logger.Info().Int("request_index", requestIndex).Msg("new story")
		return out, nil
	}

	text, err := a.src.Continuity(ctx)
	if err != nil {
		return Context{}, fmt.Errorf("load continuity: %w", err)
	}
	out.Text = text

	a.logger.Info().
		Int("request_index", requestIndex).
		Int("continuity_bytes", len(text)).
		Msg("continuing story")

	return out, nil
}
