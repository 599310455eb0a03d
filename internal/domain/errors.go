package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced category, task or session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates a state-machine command was issued from the wrong state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrSessionActive indicates a session is already running.
	ErrSessionActive = errors.New("a session is already active")

	// ErrNoActiveSession indicates a command needs a running session and there is none.
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidName indicates an empty or oversized category/task name.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidResponse indicates a reminder answer outside yes/no/dismissed.
	ErrInvalidResponse = errors.New("invalid reminder response")
)

// TransitionError describes a rejected state-machine command.
type TransitionError struct {
	Action   string
	Current  SessionState
	Required []SessionState
	// Cause is an optional more specific sentinel (ErrSessionActive, ErrNoActiveSession).
	Cause error
}

func (e *TransitionError) Error() string {
	if len(e.Required) == 1 {
		return fmt.Sprintf("cannot %s: current state is %q, expected %q", e.Action, e.Current, e.Required[0])
	}
	return fmt.Sprintf("cannot %s: current state is %q, expected one of %q", e.Action, e.Current, e.Required)
}

// Unwrap lets errors.Is match both ErrInvalidTransition and the specific cause.
func (e *TransitionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrInvalidTransition, e.Cause}
	}
	return []error{ErrInvalidTransition}
}
