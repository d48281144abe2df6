package store

// listEntry fetches the list at key for mutation, creating it when create
// is set. Callers must hold the shard write lock.
func (s *Store) listEntry(sh *shard, key string, now int64, create bool) (*Entry, error) {
	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		if !create {
			return nil, nil
		}
		e = &Entry{Value: NewList(nil)}
		sh.entries[key] = e
		return e, nil
	}
	if e.Value.Type != TypeList {
		return nil, ErrWrongType
	}
	return e, nil
}

// LPush prepends elems to the list at key and returns the new length.
// Elements are inserted one at a time, so LPUSH a b c leaves c at the head.
func (s *Store) LPush(key string, elems [][]byte) (int, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, err := s.listEntry(sh, key, now, true)
	if err != nil {
		return 0, err
	}
	for _, el := range elems {
		e.Value.List = append([][]byte{append([]byte(nil), el...)}, e.Value.List...)
	}
	return len(e.Value.List), nil
}

// RPush appends elems to the list at key and returns the new length.
func (s *Store) RPush(key string, elems [][]byte) (int, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, err := s.listEntry(sh, key, now, true)
	if err != nil {
		return 0, err
	}
	for _, el := range elems {
		e.Value.List = append(e.Value.List, append([]byte(nil), el...))
	}
	return len(e.Value.List), nil
}

// LPop removes and returns up to count elements from the head of the list.
// An emptied list is deleted. A nil result means the key was absent.
func (s *Store) LPop(key string, count int) ([][]byte, error) {
	return s.pop(key, count, true)
}

// RPop removes and returns up to count elements from the tail of the list.
func (s *Store) RPop(key string, count int) ([][]byte, error) {
	return s.pop(key, count, false)
}

func (s *Store) pop(key string, count int, fromHead bool) ([][]byte, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, err := s.listEntry(sh, key, now, false)
	if err != nil || e == nil {
		return nil, err
	}

	// A zero count against a live list yields an empty, non-nil result so
	// callers can tell it apart from a missing key.
	if count < 0 {
		count = 0
	}
	if count > len(e.Value.List) {
		count = len(e.Value.List)
	}
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if fromHead {
			out = append(out, e.Value.List[0])
			e.Value.List = e.Value.List[1:]
		} else {
			last := len(e.Value.List) - 1
			out = append(out, e.Value.List[last])
			e.Value.List = e.Value.List[:last]
		}
	}

	if len(e.Value.List) == 0 {
		delete(sh.entries, key)
		if e.ExpiresAt != 0 {
			s.expires.Delete(key)
		}
	}
	return out, nil
}

// LRange returns the elements between start and stop inclusive, with
// negative indexes counting from the tail.
func (s *Store) LRange(key string, start, stop int) ([][]byte, error) {
	var (
		out [][]byte
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeList {
			err = ErrWrongType
			return
		}
		n := len(e.Value.List)
		if start < 0 {
			start += n
		}
		if stop < 0 {
			stop += n
		}
		if start < 0 {
			start = 0
		}
		if stop >= n {
			stop = n - 1
		}
		if start > stop || start >= n {
			return
		}
		out = make([][]byte, 0, stop-start+1)
		for _, el := range e.Value.List[start : stop+1] {
			out = append(out, append([]byte(nil), el...))
		}
	})
	return out, err
}

// LLen returns the length of the list at key, 0 when absent.
func (s *Store) LLen(key string) (int, error) {
	var (
		n   int
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if e.Value.Type != TypeList {
			err = ErrWrongType
			return
		}
		n = len(e.Value.List)
	})
	return n, err
}
