package chainfsm

import "slices"

// StateConfig defines what a state allows and what it runs.
// The zero value is a state with no outgoing transitions and no handlers.
type StateConfig struct {
	Transitions []StateID
	OnEnter     Action
	OnExit      Action
}

// Allows reports whether target is one of the configured transitions
func (s StateConfig) Allows(target StateID) bool {
	return slices.Contains(s.Transitions, target)
}

func (s StateConfig) clone() StateConfig {
	s.Transitions = slices.Clone(s.Transitions)
	return s
}

// Config maps state names to their configuration.
// Looking up a missing state yields the zero StateConfig.
type Config map[StateID]StateConfig

// Clone returns a copy whose transition lists can be changed independently.
// Handlers are shared.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for id, s := range c {
		out[id] = s.clone()
	}
	return out
}

// StateOption is a functional option for configuring a StateConfig
type StateOption func(*StateConfig)

// WithTransitions adds allowed target states, skipping duplicates
func WithTransitions(targets ...StateID) StateOption {
	return func(s *StateConfig) {
		for _, t := range targets {
			if !s.Allows(t) {
				s.Transitions = append(s.Transitions, t)
			}
		}
	}
}

// WithOnEnter sets the entry action for the state
func WithOnEnter(fn Action) StateOption {
	return func(s *StateConfig) {
		s.OnEnter = fn
	}
}

// WithOnExit sets the exit action for the state
func WithOnExit(fn Action) StateOption {
	return func(s *StateConfig) {
		s.OnExit = fn
	}
}
