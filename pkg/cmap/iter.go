package cmap

// Range calls fn for each entry until fn returns false. fn runs with the
// entry's shard read-locked and must not call back into the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Item is a key/value pair returned by Snapshot.
type Item[V any] struct {
	Key   string
	Value V
}

// Snapshot copies out all entries. Callers may mutate the map while
// walking the result.
func (m *Map[V]) Snapshot() []Item[V] {
	items := make([]Item[V], 0, m.Count())
	m.Range(func(k string, v V) bool {
		items = append(items, Item[V]{Key: k, Value: v})
		return true
	})
	return items
}

// Keys returns all keys.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(k string, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Values returns all values.
func (m *Map[V]) Values() []V {
	values := make([]V, 0, m.Count())
	m.Range(func(_ string, v V) bool {
		values = append(values, v)
		return true
	})
	return values
}

// ShardStats holds statistics for a single shard.
type ShardStats struct {
	Index int
	Count int
}

// Stats returns per-shard entry counts.
func (m *Map[V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, s := range m.shards {
		s.mu.RLock()
		stats[i] = ShardStats{Index: i, Count: len(s.items)}
		s.mu.RUnlock()
	}
	return stats
}
