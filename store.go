package chainfsm

import (
	"slices"
	"sync"

	"github.com/librescoot/chainfsm/observable"
)

// Store is the reactive record behind a machine: current state, context and
// transition history. It is exposed through Machine.Store for observers such
// as UI layers; all mutation goes through the Machine.
//
// Subscribers are notified after state or history changes and after any
// mutation of the context record, through the machine's scheduler.
type Store struct {
	subject *observable.Subject

	mu             sync.RWMutex
	state          StateID
	context        *observable.Map
	unbind         func()
	history        []HistoryRecord
	historyEnabled bool
	historySize    int
}

// StoreSnapshot is a detached, point-in-time copy of a Store.
type StoreSnapshot struct {
	State          StateID         `json:"state" yaml:"state"`
	Context        map[string]any  `json:"context" yaml:"context"`
	History        []HistoryRecord `json:"history" yaml:"history"`
	HistoryEnabled bool            `json:"historyEnabled" yaml:"historyEnabled"`
	HistorySize    int             `json:"historySize" yaml:"historySize"`
}

func newStore(initial StateID, ctx *observable.Map, historyEnabled bool, historySize int, scheduler observable.Scheduler) *Store {
	s := &Store{
		subject:        observable.NewSubject(scheduler),
		state:          initial,
		historyEnabled: historyEnabled,
		historySize:    max(historySize, 0),
	}
	s.bind(ctx)
	return s
}

// Subscribe registers fn to run after any change to the store.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.subject.Subscribe(fn)
}

// State returns the current state
func (s *Store) State() StateID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Context returns the live context record
func (s *Store) Context() *observable.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

// HistoryEnabled reports whether transitions are being recorded
func (s *Store) HistoryEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyEnabled
}

// HistorySize returns the maximum number of retained records
func (s *Store) HistorySize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historySize
}

// Snapshot returns a detached, acyclic copy of the store.
func (s *Store) Snapshot() StoreSnapshot {
	s.mu.RLock()
	snap := StoreSnapshot{
		State:          s.state,
		History:        make([]HistoryRecord, len(s.history)),
		HistoryEnabled: s.historyEnabled,
		HistorySize:    s.historySize,
	}
	for i, rec := range s.history {
		rec.Payload = observable.Detach(rec.Payload)
		snap.History[i] = rec
	}
	ctx := s.context
	s.mu.RUnlock()

	snap.Context = ctx.Snapshot()
	return snap
}

func (s *Store) bind(ctx *observable.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unbind != nil {
		s.unbind()
	}
	s.context = ctx
	s.unbind = ctx.Subscribe(s.subject.Notify)
}

func (s *Store) setContext(ctx *observable.Map) {
	s.bind(ctx)
	s.subject.Notify()
}

func (s *Store) setState(state StateID) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.subject.Notify()
}

func (s *Store) historyCopy() []HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.historyEnabled {
		return []HistoryRecord{}
	}
	return slices.Clone(s.history)
}

// record appends rec when history is enabled, evicting the oldest record
// once the bound is exceeded.
func (s *Store) record(rec HistoryRecord) bool {
	s.mu.Lock()
	if !s.historyEnabled {
		s.mu.Unlock()
		return false
	}
	s.history = append(s.history, rec)
	if len(s.history) > s.historySize {
		s.history = slices.Delete(s.history, 0, 1)
	}
	s.mu.Unlock()

	s.subject.Notify()
	return true
}

func (s *Store) clearHistory() {
	s.mu.Lock()
	if !s.historyEnabled {
		s.mu.Unlock()
		return
	}
	s.history = nil
	s.mu.Unlock()

	s.subject.Notify()
}

func (s *Store) enableHistory(enable bool) {
	s.mu.Lock()
	s.historyEnabled = enable
	if !enable {
		s.history = nil
	}
	s.mu.Unlock()

	s.subject.Notify()
}

func (s *Store) setHistorySize(size int) {
	size = max(size, 0)

	s.mu.Lock()
	s.historySize = size
	if len(s.history) > size {
		s.history = slices.Clone(s.history[len(s.history)-size:])
	}
	s.mu.Unlock()

	s.subject.Notify()
}
