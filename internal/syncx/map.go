// Package syncx provides extended synchronization primitives
package syncx

import (
	"cmp"
	"slices"
	"sync"
)

// Map is a key/value table guarded by an RWMutex. Every operation holds the
// lock for its whole duration, so changes to one key are atomic with respect
// to reads of that key.
type Map[K cmp.Ordered, V any] struct {
	mu     sync.RWMutex
	values map[K]V
}

// NewMap creates a table seeded with a copy of initial.
func NewMap[K cmp.Ordered, V any](initial map[K]V) *Map[K, V] {
	m := &Map[K, V]{values: make(map[K]V, len(initial))}
	for k, v := range initial {
		m.values[k] = v
	}
	return m
}

// Load returns the value for key and whether it was present.
func (m *Map[K, V]) Load(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Store sets key to v.
func (m *Map[K, V]) Store(key K, v V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = v
}

// Update runs fn under the write lock with the current value for key. If fn
// returns an error the table is left untouched.
func (m *Map[K, V]) Update(key K, fn func(cur V, ok bool) (V, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.values[key]
	next, err := fn(cur, ok)
	if err != nil {
		return err
	}
	m.values[key] = next
	return nil
}

// Keys returns the current keys in sorted order.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Snapshot returns a copy of the table.
func (m *Map[K, V]) Snapshot() map[K]V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[K]V, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
