package chainfsm

import (
	"maps"
	"slices"
)

// CanMoveTo reports whether target is an allowed transition from the
// current state.
func (m *Machine) CanMoveTo(target StateID) bool {
	return m.stateConfig(m.store.State()).Allows(target)
}

// Transitions returns a copy of the transitions configured for state
func (m *Machine) Transitions(state StateID) []StateID {
	return slices.Clone(m.stateConfig(state).Transitions)
}

// States returns every configured state in sorted order
func (m *Machine) States() []StateID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.config))
}

// SetTransitions replaces the allowed transitions of state. Unknown states
// are created.
func (m *Machine) SetTransitions(state StateID, targets ...StateID) *Machine {
	m.edit(state, func(s *StateConfig) {
		s.Transitions = nil
		WithTransitions(targets...)(s)
	})
	m.logger.Debug("transitions set", "state", state, "targets", targets)
	return m
}

// AddTransition allows a transition from state to target. Adding an existing
// transition is a no-op.
func (m *Machine) AddTransition(state, target StateID) *Machine {
	m.edit(state, WithTransitions(target))
	return m
}

// RemoveTransition disallows a transition from state to target
func (m *Machine) RemoveTransition(state, target StateID) *Machine {
	m.edit(state, func(s *StateConfig) {
		s.Transitions = slices.DeleteFunc(s.Transitions, func(t StateID) bool { return t == target })
	})
	return m
}

// SetHandler sets or, with a nil action, clears the onEnter or onExit
// handler of state.
func (m *Machine) SetHandler(state StateID, kind HandlerKind, action Action) *Machine {
	switch kind {
	case OnEnter:
		m.edit(state, func(s *StateConfig) { s.OnEnter = action })
	case OnExit:
		m.edit(state, func(s *StateConfig) { s.OnExit = action })
	default:
		m.logger.Warn("unknown handler kind", "state", state, "kind", kind)
	}
	return m
}

func (m *Machine) stateConfig(state StateID) StateConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config[state]
}

// edit applies fn to a copy of the state's entry and stores it back
func (m *Machine) edit(state StateID, fn StateOption) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.config[state].clone()
	fn(&s)
	m.config[state] = s
}
