package workflow

import (
	"errors"
	"fmt"
)

// Stage identifies where a generation failed.
type Stage string

const (
	// StageGenerate indicates the generator call itself failed or timed out.
	StageGenerate Stage = "generate"

	// StageValidate indicates the generator returned output that is not a
	// well-formed chapter.
	StageValidate Stage = "validate"
)

// ErrInvalidOutput marks a generator answer that arrived but is not a valid
// chapter. Generators wrap it so the workflow reports a validation failure.
var ErrInvalidOutput = errors.New("generator output is not a valid chapter")

// GenerationError is returned when no usable chapter came back from the
// generator. Nothing is persisted when it occurs.
type GenerationError struct {
	Stage     Stage
	RequestID string
	Err       error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("generation %s failed (request=%s): %v", e.Stage, e.RequestID, e.Err)
	}
	return fmt.Sprintf("generation %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError returns true if err is, or wraps, a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}
