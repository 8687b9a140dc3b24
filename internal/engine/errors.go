package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a Config cannot produce a timeline.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidStateTransition is returned when an operation is called from
	// a status that forbids it.
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// TransitionError names the rejected operation and the status it was
// attempted from. It matches ErrInvalidStateTransition with errors.Is.
type TransitionError struct {
	Op     string
	Status Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", ErrInvalidStateTransition, e.Op, e.Status)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }
