package timer

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated  = errors.New("timer: no authenticated user")
	ErrNotActive        = errors.New("timer: no active session")
	ErrFinishInProgress = errors.New("timer: finish already in progress")
	// ErrSuperseded is returned when a finish completes after the draft was reset.
	ErrSuperseded   = errors.New("timer: session was reset before finish completed")
	ErrInvalidDraft = errors.New("timer: session draft requires a course")
)

// PersistenceError reports a failed write to the session store. The engine
// keeps its state when it sees one so the caller can retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("timer: failed to %s session: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceFailure reports whether err is, or wraps, a PersistenceError.
func IsPersistenceFailure(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
