package cmap

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration. Locks are taken shard by
// shard, so the view is not a consistent point-in-time snapshot.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
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

// Keys returns all keys.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Count())
	m.Range(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Sample visits up to limit key-value pairs starting from a shard offset
// and returns the number visited. Successive calls with advancing offsets
// spread visits across shards, which keeps repeated bounded scans from
// always hitting the same keys. Go's map iteration order adds further
// randomization within a shard.
func (m *Map[K, V]) Sample(startShard, limit int, fn func(key K, value V) bool) int {
	if limit <= 0 {
		return 0
	}
	count := 0
	n := len(m.shards)
	for i := 0; i < n; i++ {
		s := m.shards[(startShard+i)%n]
		s.mu.RLock()
		for k, v := range s.items {
			if count >= limit {
				s.mu.RUnlock()
				return count
			}
			if !fn(k, v) {
				s.mu.RUnlock()
				return count
			}
			count++
		}
		s.mu.RUnlock()
	}
	return count
}
