// Package export renders machines for humans and tools: Graphviz DOT for
// diagrams and YAML manifests that LoadDefinition reads back.
package export

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/librescoot/chainfsm"
)

// Describer is the read-only view of a machine the exporters need.
// *chainfsm.Machine implements it.
type Describer interface {
	Current() chainfsm.StateID
	States() []chainfsm.StateID
	Transitions(state chainfsm.StateID) []chainfsm.StateID
	Manifest() chainfsm.Manifest
}

// DOT generates Graphviz DOT source for the machine. States are emitted in
// sorted order, the current state is filled, and every configured
// transition becomes one edge.
func DOT(m Describer) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Machine {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")

	current := m.Current()
	states := m.States()
	nodes := slices.Clone(states)
	for _, s := range states {
		nodes = append(nodes, m.Transitions(s)...)
	}
	nodes = append(nodes, current)
	slices.Sort(nodes)
	nodes = slices.Compact(nodes)

	for _, n := range nodes {
		style := ""
		if n == current {
			style = ", style=\"rounded,filled\", fillcolor=lightgreen"
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", n, n, style)
	}
	for _, s := range states {
		for _, t := range m.Transitions(s) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", s, t)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// YAML encodes the machine's manifest.
func YAML(m Describer) ([]byte, error) {
	data, err := marshal(m.Manifest())
	if err != nil {
		return nil, fmt.Errorf("export manifest: %w", err)
	}
	return data, nil
}

// Snapshot writes snap to w as YAML.
func Snapshot(w io.Writer, snap chainfsm.StoreSnapshot) error {
	data, err := marshal(snap)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func marshal(v any) (data []byte, err error) {
	// yaml.v3 panics on funcs and channels instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encode yaml: %v", r)
		}
	}()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
