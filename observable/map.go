package observable

import (
	"encoding/json"
	"slices"
	"sync"
)

// Map is an observable keyed record. Every mutation made through its methods
// notifies subscribers via the embedded Subject. A *Map stored as a value
// forwards its own notifications to the parent, so edits deep in a nested
// record are seen at the top.
//
// Values read with Get are live references. After mutating one in place (for
// example appending to a slice held in the record), call Notify.
type Map struct {
	*Subject

	mu   sync.RWMutex
	data map[string]any

	linkMu   sync.Mutex
	children map[string]child
}

type child struct {
	m           *Map
	unsubscribe func()
}

// NewMap wraps data in an observable record. The top-level map is copied,
// nested values are taken over as they are.
func NewMap(data map[string]any, scheduler Scheduler) *Map {
	m := &Map{
		Subject:  NewSubject(scheduler),
		data:     make(map[string]any, len(data)),
		children: make(map[string]child),
	}
	m.load(data)
	return m
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Value returns the value stored under key, or nil.
func (m *Map) Value(key string) any {
	v, _ := m.Get(key)
	return v
}

// Set stores v under key and notifies subscribers. Writing an equal value
// still notifies; deciding whether anything changed is up to the subscriber.
func (m *Map) Set(key string, v any) {
	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()

	m.relink()
	m.Notify()
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *Map) Delete(key string) {
	m.mu.Lock()
	_, ok := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if ok {
		m.relink()
		m.Notify()
	}
}

// Update runs fn with exclusive access to the underlying data, then notifies.
// fn must not call methods on m.
func (m *Map) Update(fn func(data map[string]any)) {
	m.mu.Lock()
	fn(m.data)
	m.mu.Unlock()

	m.relink()
	m.Notify()
}

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Len returns the number of keys.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Snapshot returns a deep, detached copy of the record with nested records
// flattened to map[string]any and cyclic references replaced by nil. It is
// safe to keep and read after further mutations; writing to it has no effect
// on m.
func (m *Map) Snapshot() map[string]any {
	return newCopier(true).record(m).(map[string]any)
}

// MarshalJSON encodes the current snapshot.
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// MarshalYAML encodes the current snapshot.
func (m *Map) MarshalYAML() (any, error) {
	return m.Snapshot(), nil
}

func (m *Map) load(data map[string]any) {
	m.mu.Lock()
	for k, v := range data {
		m.data[k] = v
	}
	m.mu.Unlock()

	m.relink()
}

func (m *Map) entries() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

func (m *Map) nested() map[string]*Map {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*Map)
	for k, v := range m.data {
		if x, ok := v.(*Map); ok && x != nil {
			out[k] = x
		}
	}
	return out
}

// relink keeps one forwarding subscription per nested record. Links that
// would close a cycle are skipped.
func (m *Map) relink() {
	nested := m.nested()

	m.linkMu.Lock()
	defer m.linkMu.Unlock()

	for k, c := range m.children {
		if nested[k] != c.m {
			c.unsubscribe()
			delete(m.children, k)
		}
	}
	for k, x := range nested {
		if _, ok := m.children[k]; ok {
			continue
		}
		if x == m || x.reaches(m, make(map[*Map]bool)) {
			continue
		}
		m.children[k] = child{m: x, unsubscribe: x.Subscribe(m.Notify)}
	}
}

func (m *Map) reaches(target *Map, seen map[*Map]bool) bool {
	if seen[m] {
		return false
	}
	seen[m] = true
	for _, x := range m.nested() {
		if x == target || x.reaches(target, seen) {
			return true
		}
	}
	return false
}
