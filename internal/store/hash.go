package store

// HSet stores field/value pairs in the hash at key, creating it when
// absent, and returns the number of new fields.
func (s *Store) HSet(key string, fields map[string][]byte) (int, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		e = &Entry{Value: NewHash(nil)}
		sh.entries[key] = e
	} else if e.Value.Type != TypeHash {
		return 0, ErrWrongType
	}

	added := 0
	for f, v := range fields {
		if _, present := e.Value.Hash[f]; !present {
			added++
		}
		e.Value.Hash[f] = append([]byte(nil), v...)
	}
	return added, nil
}

// HGet returns the value of field in the hash at key; nil when the key or
// field is absent.
func (s *Store) HGet(key, field string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeHash {
			err = ErrWrongType
			return
		}
		if v, ok := e.Value.Hash[field]; ok {
			out = append([]byte(nil), v...)
			if out == nil {
				out = []byte{}
			}
		}
	})
	return out, err
}

// HDel removes fields from the hash at key and returns how many existed.
// An emptied hash is deleted.
func (s *Store) HDel(key string, fields []string) (int, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		return 0, nil
	}
	if e.Value.Type != TypeHash {
		return 0, ErrWrongType
	}

	removed := 0
	for _, f := range fields {
		if _, present := e.Value.Hash[f]; present {
			delete(e.Value.Hash, f)
			removed++
		}
	}
	if len(e.Value.Hash) == 0 {
		delete(sh.entries, key)
		if e.ExpiresAt != 0 {
			s.expires.Delete(key)
		}
	}
	return removed, nil
}

// HGetAll returns every field/value pair of the hash at key.
func (s *Store) HGetAll(key string) (map[string][]byte, error) {
	var (
		out map[string][]byte
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeHash {
			err = ErrWrongType
			return
		}
		out = make(map[string][]byte, len(e.Value.Hash))
		for f, v := range e.Value.Hash {
			out[f] = append([]byte(nil), v...)
		}
	})
	return out, err
}

// HExists reports whether field exists in the hash at key.
func (s *Store) HExists(key, field string) (bool, error) {
	var (
		found bool
		err   error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeHash {
			err = ErrWrongType
			return
		}
		_, found = e.Value.Hash[field]
	})
	return found, err
}

// HLen returns the number of fields in the hash at key, 0 when absent.
func (s *Store) HLen(key string) (int, error) {
	var (
		n   int
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeHash {
			err = ErrWrongType
			return
		}
		n = len(e.Value.Hash)
	})
	return n, err
}
