package store

import "time"

// Expire sets the deadline for key to now+ttl. The duration is converted
// to an absolute wall-clock deadline at call time. A non-positive ttl
// deletes the key immediately, matching EXPIRE with zero or negative
// seconds. Returns false when the key does not exist.
func (s *Store) Expire(key string, ttl time.Duration) bool {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		return false
	}

	if ttl <= 0 {
		delete(sh.entries, key)
		s.expires.Delete(key)
		return true
	}

	e.ExpiresAt = now + ttl.Milliseconds()
	s.expires.Set(key, e.ExpiresAt)
	return true
}

// Persist clears the deadline on key. Returns true only when the key
// existed and had a deadline to clear.
func (s *Store) Persist(key string) bool {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok || e.ExpiresAt == 0 {
		return false
	}
	e.ExpiresAt = 0
	s.expires.Delete(key)
	return true
}

// TTL constants for the absent-key and no-deadline cases.
const (
	TTLNoKey    = -2
	TTLNoExpiry = -1
)

// PTTL returns the remaining lifetime of key in milliseconds, TTLNoExpiry
// when the key has no deadline, or TTLNoKey when the key is absent.
func (s *Store) PTTL(key string) int64 {
	now := s.nowMillis()
	remaining := int64(TTLNoKey)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.ExpiresAt == 0 {
			remaining = TTLNoExpiry
			return
		}
		remaining = e.ExpiresAt - now
	})
	return remaining
}

// TTL returns the remaining lifetime of key in whole seconds, with the
// same sentinel values as PTTL.
func (s *Store) TTL(key string) int64 {
	ms := s.PTTL(key)
	if ms < 0 {
		return ms
	}
	// Round up so a key with any time left never reports 0.
	return (ms + 999) / 1000
}

// expireIfDue removes key when its recorded deadline has passed. It is the
// sweeper's eviction step; only the single key's shard lock is held.
// Returns true when an expired entry was removed.
func (s *Store) expireIfDue(key string) bool {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.entries[key]
	if !ok {
		// Entry is gone but the index still had it; drop the stale index.
		s.expires.Delete(key)
		return false
	}
	if !e.expired(now) {
		return false
	}
	delete(sh.entries, key)
	s.expires.Delete(key)
	s.sweptExpired.Add(1)
	return true
}
