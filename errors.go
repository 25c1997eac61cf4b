package chainfsm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition matches every InvalidTransitionError
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrNoInitialState is returned when a definition has no initial state
	ErrNoInitialState = errors.New("no initial state defined")
)

// InvalidTransitionError reports a MoveTo whose target is not configured for
// the current state. It is delivered to the diagnostics channel, never returned
// from MoveTo.
type InvalidTransitionError struct {
	From StateID
	To   StateID
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsInvalidTransition reports whether err is an InvalidTransitionError
func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}
