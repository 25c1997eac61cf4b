package chainfsm

import "slices"

// OnTransition registers a listener invoked after every state change, once
// the new state is visible and before the target's onEnter handler.
func (m *Machine) OnTransition(fn TransitionListener) *Machine {
	m.mu.Lock()
	m.transitionListeners = append(m.transitionListeners, fn)
	m.mu.Unlock()
	return m
}

// WhenIn registers cb to run every time the machine enters state, after the
// state's onEnter handler. If the machine is already in state, cb also runs
// right away.
func (m *Machine) WhenIn(state StateID, cb StateCallback) *Machine {
	m.mu.Lock()
	m.stateCallbacks[state] = append(m.stateCallbacks[state], cb)
	m.mu.Unlock()

	if m.IsIn(state) {
		cb(m.newContext(state, state, nil))
	}
	return m
}

func (m *Machine) listeners() []TransitionListener {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.transitionListeners)
}

func (m *Machine) callbacks(state StateID) []StateCallback {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.stateCallbacks[state])
}
