package store

// SAdd adds members to the set at key, creating it when absent, and
// returns the number of members that were not already present.
func (s *Store) SAdd(key string, members []string) (int, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		e = &Entry{Value: NewSet(nil)}
		sh.entries[key] = e
	} else if e.Value.Type != TypeSet {
		return 0, ErrWrongType
	}

	added := 0
	for _, m := range members {
		if _, dup := e.Value.Set[m]; !dup {
			e.Value.Set[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

// SRem removes members from the set at key and returns how many were
// present. An emptied set is deleted.
func (s *Store) SRem(key string, members []string) (int, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		return 0, nil
	}
	if e.Value.Type != TypeSet {
		return 0, ErrWrongType
	}

	removed := 0
	for _, m := range members {
		if _, present := e.Value.Set[m]; present {
			delete(e.Value.Set, m)
			removed++
		}
	}
	if len(e.Value.Set) == 0 {
		delete(sh.entries, key)
		if e.ExpiresAt != 0 {
			s.expires.Delete(key)
		}
	}
	return removed, nil
}

// SMembers returns all members of the set at key.
func (s *Store) SMembers(key string) ([]string, error) {
	var (
		out []string
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeSet {
			err = ErrWrongType
			return
		}
		out = make([]string, 0, len(e.Value.Set))
		for m := range e.Value.Set {
			out = append(out, m)
		}
	})
	return out, err
}

// SIsMember reports whether member is in the set at key.
func (s *Store) SIsMember(key, member string) (bool, error) {
	var (
		found bool
		err   error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeSet {
			err = ErrWrongType
			return
		}
		_, found = e.Value.Set[member]
	})
	return found, err
}

// SCard returns the cardinality of the set at key, 0 when absent.
func (s *Store) SCard(key string) (int, error) {
	var (
		n   int
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeSet {
			err = ErrWrongType
			return
		}
		n = len(e.Value.Set)
	})
	return n, err
}
