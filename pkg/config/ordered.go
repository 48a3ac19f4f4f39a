package config

// orderedMap is a map that remembers insertion order.
type orderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{values: make(map[K]V)}
}

func (m *orderedMap[K, V]) Has(k K) bool {
	_, ok := m.values[k]
	return ok
}

func (m *orderedMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

// SetIfAbsent stores v under k unless k is already present, and reports
// whether it stored.
func (m *orderedMap[K, V]) SetIfAbsent(k K, v V) bool {
	if m.Has(k) {
		return false
	}

	m.keys = append(m.keys, k)
	m.values[k] = v

	return true
}

func (m *orderedMap[K, V]) Len() int { return len(m.keys) }

// Values returns values in insertion order.
func (m *orderedMap[K, V]) Values() []V {
	out := make([]V, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}

	return out
}
