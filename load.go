package chainfsm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Manifest is the serializable form of a machine's configuration:
//
//	initial: idle
//	history: {enabled: true, size: 10}
//	context: {count: 0}
//	states:
//	  idle: {transitions: [loading]}
//
// Handlers have no textual form and are attached after loading.
type Manifest struct {
	Initial StateID                   `yaml:"initial" json:"initial"`
	History *HistoryManifest          `yaml:"history,omitempty" json:"history,omitempty"`
	Context map[string]any            `yaml:"context,omitempty" json:"context,omitempty"`
	States  map[StateID]StateManifest `yaml:"states" json:"states"`
}

// StateManifest lists the allowed transitions of one state
type StateManifest struct {
	Transitions []StateID `yaml:"transitions,flow" json:"transitions"`
}

// HistoryManifest holds the history settings. A nil Size keeps the default.
type HistoryManifest struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Size    *int `yaml:"size,omitempty" json:"size,omitempty"`
}

// Definition converts the manifest into a builder
func (mf Manifest) Definition() *Definition {
	d := NewDefinition().Initial(mf.Initial).Context(mf.Context)
	for id, s := range mf.States {
		d.State(id, WithTransitions(s.Transitions...))
	}
	if mf.History != nil {
		d.Options(WithHistory(mf.History.Enabled))
		if mf.History.Size != nil {
			d.Options(WithHistorySize(*mf.History.Size))
		}
	}
	return d
}

// Manifest describes the machine's current configuration and context, with
// the current state as the initial one.
func (m *Machine) Manifest() Manifest {
	snap := m.store.Snapshot()

	m.mu.RLock()
	states := make(map[StateID]StateManifest, len(m.config))
	for id, s := range m.config {
		states[id] = StateManifest{Transitions: slices.Clone(s.Transitions)}
	}
	m.mu.RUnlock()

	size := snap.HistorySize
	return Manifest{
		Initial: snap.State,
		History: &HistoryManifest{Enabled: snap.HistoryEnabled, Size: &size},
		Context: snap.Context,
		States:  states,
	}
}

// LoadDefinition decodes a YAML manifest. Unknown fields are rejected.
func LoadDefinition(r io.Reader) (*Definition, error) {
	var mf Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode definition: %w", ErrNoInitialState)
		}
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	d := mf.Definition()
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return d, nil
}

// LoadDefinitionFile reads a YAML manifest from path
func LoadDefinitionFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition: %w", err)
	}
	defer f.Close()

	d, err := LoadDefinition(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
