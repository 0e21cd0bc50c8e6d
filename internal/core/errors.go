package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a missing review or attachment. Callers checking for
	// existence should treat it as a normal answer.
	ErrNotFound = errors.New("not found")
	// ErrInvalidIdentifier is returned before any I/O when an id fails its format check.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidRequest marks a request with missing fields.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidPath is returned when a resolved path would leave its review directory.
	ErrInvalidPath = errors.New("invalid path")
	// ErrTransientExternal wraps network or backend failures of the external services.
	// Re-invoking EnsureReview is safe.
	ErrTransientExternal = errors.New("external service failure")
	// ErrPersistence wraps review store read and write failures.
	ErrPersistence = errors.New("persistence failure")
)

// StageError is the structured error of a failed run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("review pipeline failed at stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Retryable reports whether re-running EnsureReview could succeed without
// the caller changing its input.
func (e *StageError) Retryable() bool {
	return errors.Is(e.Err, ErrTransientExternal) || errors.Is(e.Err, ErrPersistence)
}
