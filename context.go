package chainfsm

import (
	"log/slog"

	"github.com/librescoot/chainfsm/observable"
)

// Context is passed to all handlers and listeners. It embeds the machine's
// live context record, so c.Get and c.Set read and write it directly.
type Context struct {
	*observable.Map
	FSM       *Machine
	Event     *Event  // Event being fired (nil outside Fire)
	FromState StateID // State we're transitioning from
	ToState   StateID // State we're transitioning to
	Logger    *slog.Logger
}

// CurrentState returns the current state
func (c *Context) CurrentState() StateID {
	return c.FSM.Current()
}

// IsInState checks if the given state is the current state
func (c *Context) IsInState(id StateID) bool {
	return c.FSM.IsIn(id)
}

// MoveTo requests a transition on the owning machine
func (c *Context) MoveTo(target StateID, payload any) {
	c.FSM.MoveTo(target, payload)
}

// Fire fires an event on the owning machine
func (c *Context) Fire(event EventID, payload any) {
	c.FSM.Fire(event, payload)
}
