package chainfsm

import "log/slog"

// StateID is a unique identifier for a state
type StateID string

// EventID is a unique identifier for an event type
type EventID string

// HandlerKind selects one of the two per-state handler slots
type HandlerKind int

const (
	// OnEnter runs after the state has become current
	OnEnter HandlerKind = iota
	// OnExit runs before the machine leaves the state
	OnExit
)

func (k HandlerKind) String() string {
	switch k {
	case OnEnter:
		return "onEnter"
	case OnExit:
		return "onExit"
	default:
		return "unknown"
	}
}

// Action is an entry or exit handler. Panics propagate to the caller of the
// operation that triggered it.
type Action func(c *Context, payload any)

// TransitionListener is notified after every successful transition
type TransitionListener func(from, to StateID, payload any)

// StateCallback is notified whenever the machine enters a specific state
type StateCallback func(c *Context)

// ContextListener receives the key-level changes detected in the context
type ContextListener func(c *Context, changes []Change)

// Logger is the default logger used when none is provided
var Logger = slog.Default()
