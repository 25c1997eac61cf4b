package chainfsm

import "slices"

// Event is passed to event handlers through Context.Event
type Event struct {
	ID      EventID
	Payload any
}

// Handler is an event handler with identity. Registering the same *Handler
// twice for an event has no effect, and Off removes it by pointer.
type Handler struct {
	fn func(c *Context, payload any)
}

// NewHandler wraps fn so it can be registered and later removed
func NewHandler(fn func(c *Context, payload any)) *Handler {
	return &Handler{fn: fn}
}

// On registers h for every firing of event
func (m *Machine) On(event EventID, h *Handler) *Machine {
	m.mu.Lock()
	m.handlers[event] = appendHandler(m.handlers[event], h)
	m.mu.Unlock()
	return m
}

// Once registers h for the next firing of event only
func (m *Machine) Once(event EventID, h *Handler) *Machine {
	m.mu.Lock()
	m.onceHandlers[event] = appendHandler(m.onceHandlers[event], h)
	m.mu.Unlock()
	return m
}

// Off removes h from both the regular and the one-time handlers of event.
// A nil h removes every handler of event.
func (m *Machine) Off(event EventID, h *Handler) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h == nil {
		delete(m.handlers, event)
		delete(m.onceHandlers, event)
		return m
	}
	m.handlers[event] = removeHandler(m.handlers[event], h)
	m.onceHandlers[event] = removeHandler(m.onceHandlers[event], h)
	return m
}

// Fire invokes the regular handlers of event in registration order, then the
// one-time handlers. The one-time set is cleared before any of them runs, so
// a one-time handler that fires the same event does not see itself.
func (m *Machine) Fire(event EventID, payload any) *Machine {
	m.mu.RLock()
	regular := slices.Clone(m.handlers[event])
	m.mu.RUnlock()

	ev := &Event{ID: event, Payload: payload}
	if len(regular) > 0 {
		c := m.newContext("", "", ev)
		for _, h := range regular {
			h.fn(c, payload)
		}
	}

	m.mu.Lock()
	once := m.onceHandlers[event]
	delete(m.onceHandlers, event)
	m.mu.Unlock()

	if len(once) > 0 {
		c := m.newContext("", "", ev)
		for _, h := range once {
			h.fn(c, payload)
		}
	}

	if len(regular) == 0 && len(once) == 0 {
		m.logger.Debug("event has no handlers", "event", event)
	}
	return m
}

// Send fires ev
func (m *Machine) Send(ev Event) *Machine {
	return m.Fire(ev.ID, ev.Payload)
}

func appendHandler(list []*Handler, h *Handler) []*Handler {
	if h == nil || slices.Contains(list, h) {
		return list
	}
	return append(list, h)
}

func removeHandler(list []*Handler, h *Handler) []*Handler {
	return slices.DeleteFunc(list, func(x *Handler) bool { return x == h })
}
