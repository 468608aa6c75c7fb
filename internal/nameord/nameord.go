// Package nameord provides an insertion-ordered map keyed by
// case-insensitively compared names. Schema item collections, class
// property lists, and custom attribute sets all require the same two
// invariants: lookup ignores name case, iteration follows insertion order.
package nameord

import (
	"iter"
	"strings"
)

// Map is an insertion-ordered mapping from names to values. Name
// comparison is case-insensitive; the originally inserted name spelling
// is preserved for iteration.
type Map[V any] struct {
	index map[string]int
	names []string
	vals  []V
}

// New creates an empty map.
func New[V any]() *Map[V] {
	return &Map[V]{index: make(map[string]int)}
}

func fold(name string) string {
	return strings.ToLower(name)
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Get returns the value stored under name, ignoring case.
func (m *Map[V]) Get(name string) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	i, ok := m.index[fold(name)]
	if !ok {
		return zero, false
	}
	return m.vals[i], true
}

// Has reports whether name is present, ignoring case.
func (m *Map[V]) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[fold(name)]
	return ok
}

// Add inserts a new entry and reports whether the name was free. The
// entry is not replaced when the name is already taken.
func (m *Map[V]) Add(name string, v V) bool {
	key := fold(name)
	if _, exists := m.index[key]; exists {
		return false
	}
	m.index[key] = len(m.names)
	m.names = append(m.names, name)
	m.vals = append(m.vals, v)
	return true
}

// Put inserts or replaces the entry under name. Replacing keeps the
// original insertion position and name spelling.
func (m *Map[V]) Put(name string, v V) (replaced bool) {
	key := fold(name)
	if i, exists := m.index[key]; exists {
		m.vals[i] = v
		return true
	}
	m.index[key] = len(m.names)
	m.names = append(m.names, name)
	m.vals = append(m.vals, v)
	return false
}

// Delete removes the entry under name and reports whether it existed.
func (m *Map[V]) Delete(name string) bool {
	key := fold(name)
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.names = append(m.names[:i], m.names[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	delete(m.index, key)
	for k, j := range m.index {
		if j > i {
			m.index[k] = j - 1
		}
	}
	return true
}

// Names yields stored name spellings in insertion order.
func (m *Map[V]) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		if m == nil {
			return
		}
		for _, name := range m.names {
			if !yield(name) {
				return
			}
		}
	}
}

// Values yields values in insertion order.
func (m *Map[V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		if m == nil {
			return
		}
		for _, v := range m.vals {
			if !yield(v) {
				return
			}
		}
	}
}

// All yields name/value pairs in insertion order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if m == nil {
			return
		}
		for i, name := range m.names {
			if !yield(name, m.vals[i]) {
				return
			}
		}
	}
}
