package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested chapter does not exist.
var ErrNotFound = errors.New("chapter not found")

// ErrInvalidChapter is returned when a chapter carries a background or
// emotion outside the closed vocabularies. Nothing is written.
var ErrInvalidChapter = errors.New("invalid chapter")

// PersistenceError wraps any storage-layer failure with the operation that
// hit it. Callers decide whether to retry or abort.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is, or wraps, a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
