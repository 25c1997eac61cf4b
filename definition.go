package chainfsm

import (
	"fmt"
	"maps"
	"slices"
)

// Definition holds the FSM structure before building a Machine
type Definition struct {
	states  Config
	initial StateID
	context map[string]any
	options []MachineOption
}

// NewDefinition creates a new FSM definition builder
func NewDefinition() *Definition {
	return &Definition{
		states: make(Config),
	}
}

// State adds a state to the definition, or extends it if it already exists
func (d *Definition) State(id StateID, opts ...StateOption) *Definition {
	s := d.states[id]
	for _, opt := range opts {
		opt(&s)
	}
	d.states[id] = s
	return d
}

// Transition allows moving from one state to another
func (d *Definition) Transition(from, to StateID) *Definition {
	return d.State(from, WithTransitions(to))
}

// Initial sets the initial state
func (d *Definition) Initial(id StateID) *Definition {
	d.initial = id
	return d
}

// Context sets the initial context. The map is copied when the machine is built.
func (d *Definition) Context(data map[string]any) *Definition {
	d.context = data
	return d
}

// Options adds machine options applied by Build before the ones passed to it
func (d *Definition) Options(opts ...MachineOption) *Definition {
	d.options = append(d.options, opts...)
	return d
}

// InitialState returns the configured initial state
func (d *Definition) InitialState() StateID {
	return d.initial
}

// Config returns a copy of the state configuration
func (d *Definition) Config() Config {
	return d.states.Clone()
}

// States returns the defined states in sorted order
func (d *Definition) States() []StateID {
	return slices.Sorted(maps.Keys(d.states))
}

// Validate checks the definition for errors
func (d *Definition) Validate() error {
	if d.initial == "" {
		return ErrNoInitialState
	}
	return nil
}

// Build validates the definition and creates a Machine
func (d *Definition) Build(opts ...MachineOption) (*Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	all := append(slices.Clone(d.options), opts...)
	return New(d.initial, d.states, d.context, all...), nil
}
