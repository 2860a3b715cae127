// Package ordered provides a small insertion-ordered map used for changeset
// state. Iteration follows first-insertion order; overwriting a key keeps its
// position.
package ordered

// Map is an insertion-ordered map. The zero value is ready to use.
type Map[K comparable, V any] struct {
	keys []K
	vals map[K]V
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored for k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	var zero V
	if m == nil || m.vals == nil {
		return zero, false
	}
	v, ok := m.vals[k]
	if !ok {
		return zero, false
	}
	return v, true
}

// Has reports whether k is present.
func (m *Map[K, V]) Has(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// Set stores v under k, appending k to the key order when new.
func (m *Map[K, V]) Set(k K, v V) {
	if m.vals == nil {
		m.vals = make(map[K]V)
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Delete removes k, keeping the relative order of the other keys.
func (m *Map[K, V]) Delete(k K) {
	if m == nil || m.vals == nil {
		return
	}
	if _, ok := m.vals[k]; !ok {
		return
	}
	delete(m.vals, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return append([]K(nil), m.keys...)
}

// Each calls fn for every entry in insertion order until fn returns false.
func (m *Map[K, V]) Each(fn func(K, V) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a shallow copy. Values are copied by assignment.
func (m *Map[K, V]) Clone() *Map[K, V] {
	out := &Map[K, V]{}
	if m == nil || len(m.keys) == 0 {
		return out
	}
	out.keys = append(make([]K, 0, len(m.keys)), m.keys...)
	out.vals = make(map[K]V, len(m.vals))
	for k, v := range m.vals {
		out.vals[k] = v
	}
	return out
}

// ToMap copies the entries into a builtin map.
func (m *Map[K, V]) ToMap() map[K]V {
	out := make(map[K]V, m.Len())
	m.Each(func(k K, v V) bool {
		out[k] = v
		return true
	})
	return out
}
