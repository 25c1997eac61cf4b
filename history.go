package chainfsm

import "time"

// DefaultHistorySize is the history bound used when none is configured
const DefaultHistorySize = 100

// HistoryRecord describes one past transition
type HistoryRecord struct {
	From      StateID   `json:"from" yaml:"from"`
	To        StateID   `json:"to" yaml:"to"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Payload   any       `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// History returns a copy of the recorded transitions, oldest first.
// It is empty while history is disabled.
func (m *Machine) History() []HistoryRecord {
	return m.store.historyCopy()
}

// ClearHistory drops all records. No-op while history is disabled.
func (m *Machine) ClearHistory() *Machine {
	m.store.clearHistory()
	return m
}

// EnableHistory turns recording on or off. Disabling discards the records;
// re-enabling starts from an empty history.
func (m *Machine) EnableHistory(enable bool) *Machine {
	m.store.enableHistory(enable)
	m.logger.Debug("history toggled", "enabled", enable)
	return m
}

// SetHistorySize changes the bound, keeping only the newest records if the
// history is already longer. Negative sizes are treated as zero.
func (m *Machine) SetHistorySize(size int) *Machine {
	m.store.setHistorySize(size)
	return m
}
