package chainfsm

import (
	"encoding/json"
	"maps"
	"slices"
	"sync"
)

// Change describes one top-level context key whose value differs from the
// previous snapshot. A removed key has a nil Value.
type Change struct {
	Key           string `json:"key" yaml:"key"`
	Value         any    `json:"value" yaml:"value"`
	PreviousValue any    `json:"previousValue" yaml:"previousValue"`
}

// contextWatcher holds the rolling snapshot shared by all context listeners.
type contextWatcher struct {
	mu       sync.Mutex
	previous map[string]any
	forms    map[string]string
	subs     []*contextSubscription
}

type contextSubscription struct {
	fn          ContextListener
	unsubscribe func()
}

func (w *contextWatcher) reset(snapshot map[string]any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.previous = snapshot
	w.forms = encodeAll(snapshot)
}

// OnContextChange registers fn to receive the keys whose values changed
// since the last detected change. The returned function unregisters fn and is
// safe to call more than once; fn is not called after it returns.
func (m *Machine) OnContextChange(fn ContextListener) (unsubscribe func()) {
	sub := &contextSubscription{fn: fn}

	m.watcher.mu.Lock()
	sub.unsubscribe = m.store.Context().Subscribe(m.detectContextChanges)
	m.watcher.subs = append(m.watcher.subs, sub)
	m.watcher.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.watcher.mu.Lock()
			defer m.watcher.mu.Unlock()
			sub.unsubscribe()
			m.watcher.subs = slices.DeleteFunc(m.watcher.subs, func(x *contextSubscription) bool { return x == sub })
		})
	}
}

// detectContextChanges compares the context with the rolling snapshot and,
// if anything differs, advances the snapshot and notifies every listener.
// The snapshot moves before listeners run, so a listener that writes to the
// context is diffed against the state it saw.
func (m *Machine) detectContextChanges() {
	current := m.store.Context().Snapshot()

	m.watcher.mu.Lock()
	changes, forms := diffSnapshots(m.watcher.previous, m.watcher.forms, current)
	if len(changes) == 0 {
		m.watcher.mu.Unlock()
		return
	}
	m.watcher.previous, m.watcher.forms = current, forms
	listeners := make([]ContextListener, len(m.watcher.subs))
	for i, sub := range m.watcher.subs {
		listeners[i] = sub.fn
	}
	m.watcher.mu.Unlock()

	m.logger.Debug("context changed", "keys", len(changes))

	c := m.newContext("", "", nil)
	for _, fn := range listeners {
		fn(c, changes)
	}
}

// diffSnapshots walks the sorted union of keys and reports every key whose
// encoded form differs. It also returns the encoded forms of current.
func diffSnapshots(previous map[string]any, prevForms map[string]string, current map[string]any) ([]Change, map[string]string) {
	forms := encodeAll(current)

	keys := slices.Collect(maps.Keys(previous))
	for k := range current {
		if _, ok := previous[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var changes []Change
	for _, k := range keys {
		if prevForms[k] == forms[k] {
			continue
		}
		changes = append(changes, Change{
			Key:           k,
			Value:         current[k],
			PreviousValue: previous[k],
		})
	}
	return changes, forms
}

func encodeAll(snapshot map[string]any) map[string]string {
	forms := make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		forms[k] = encode(v)
	}
	return forms
}

// encode returns the canonical JSON form of v. Values that cannot be encoded
// (funcs, channels) yield "" and so compare equal to a missing key.
func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
