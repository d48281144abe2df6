package store

// SnapshotEntry is one record of a point-in-time view of the keyspace.
type SnapshotEntry struct {
	Key       string
	Value     Value
	ExpiresAt int64
}

// SnapshotView returns a consistent copy of every live entry. All shard
// read locks are held only while entries are cloned; serialization and
// compression happen on the copy, so foreground mutations are blocked for
// the duration of the copy and no longer. Entries whose deadline has
// already passed at view time are omitted, so a dump never carries a key
// that a live read would have lazily expired.
func (s *Store) SnapshotView() []SnapshotEntry {
	now := s.nowMillis()

	for _, sh := range s.shards {
		sh.mu.RLock()
	}
	var out []SnapshotEntry
	for _, sh := range s.shards {
		for k, e := range sh.entries {
			if e.expired(now) {
				continue
			}
			out = append(out, SnapshotEntry{
				Key:       k,
				Value:     e.Value.clone(),
				ExpiresAt: e.ExpiresAt,
			})
		}
	}
	for _, sh := range s.shards {
		sh.mu.RUnlock()
	}
	return out
}

// Restore replaces the keyspace with the given entries. It is called once
// at startup, before any connection is accepted. Entries whose deadline
// has already passed are dropped so a key is never resurrected past its
// recorded deadline.
func (s *Store) Restore(entries []SnapshotEntry) {
	s.FlushAll()
	now := s.nowMillis()
	for _, rec := range entries {
		if rec.ExpiresAt != 0 && rec.ExpiresAt <= now {
			continue
		}
		sh := s.shardFor(rec.Key)
		sh.mu.Lock()
		sh.entries[rec.Key] = &Entry{Value: rec.Value, ExpiresAt: rec.ExpiresAt}
		sh.mu.Unlock()
		if rec.ExpiresAt != 0 {
			s.expires.Set(rec.Key, rec.ExpiresAt)
		}
	}
}
