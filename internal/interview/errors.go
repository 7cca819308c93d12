package interview

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidExperience = errors.New("invalid experience")
	ErrAnswerTooShort    = errors.New("answer too short")

	ErrNotInProgress  = errors.New("session is not in progress")
	ErrTurnOutOfOrder = errors.New("turn index out of order")
	ErrTurnInFlight   = errors.New("another turn is being processed")
	ErrNotCompleted   = errors.New("session is not completed")
)

// InvalidStateError rejects an operation that does not fit the session's
// current state. No state was mutated.
type InvalidStateError struct {
	SessionID string
	Status    Status
	Err       error
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("session %s (%s): %v", e.SessionID, e.Status, e.Err)
}

func (e *InvalidStateError) Unwrap() error { return e.Err }

// PersistenceError indicates a turn result could not be durably recorded.
type PersistenceError struct {
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist session %s: %v", e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
