package store

import (
	"math"
	"strconv"
)

// IncrBy adjusts the integer at key by delta and returns the new value.
// A missing key is treated as 0. Overflow fails the operation; the stored
// value is never wrapped. Two concurrent IncrBy calls on the same key are
// both observed: the adjustment happens under the shard write lock.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		sh.entries[key] = &Entry{Value: NewInteger(delta)}
		return delta, nil
	}

	if !e.Value.isStringLike() {
		return 0, ErrWrongType
	}
	cur, err := e.Value.asInt()
	if err != nil {
		return 0, err
	}

	if (delta > 0 && cur > math.MaxInt64-delta) ||
		(delta < 0 && cur < math.MinInt64-delta) {
		return 0, ErrOverflow
	}

	next := cur + delta
	e.Value = NewInteger(next)
	return next, nil
}

// IncrByFloat adjusts the value at key by delta, interpreting the current
// value as a float. Returns the formatted new value. NaN and infinite
// results fail the operation.
func (s *Store) IncrByFloat(key string, delta float64) ([]byte, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	var cur float64
	if ok {
		if !e.Value.isStringLike() {
			return nil, ErrWrongType
		}
		f, err := e.Value.asFloat()
		if err != nil {
			return nil, err
		}
		cur = f
	}

	next := cur + delta
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return nil, ErrOverflow
	}

	out := strconv.AppendFloat(nil, next, 'f', -1, 64)
	if ok {
		e.Value = NewString(out)
	} else {
		sh.entries[key] = &Entry{Value: NewString(out)}
	}
	return append([]byte(nil), out...), nil
}

// Append appends b to the string at key, creating it when absent, and
// returns the resulting length.
func (s *Store) Append(key string, b []byte) (int, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		sh.entries[key] = &Entry{Value: NewString(append([]byte(nil), b...))}
		return len(b), nil
	}
	if !e.Value.isStringLike() {
		return 0, ErrWrongType
	}
	next := append(e.Value.Bytes(), b...)
	e.Value = NewString(next)
	return len(next), nil
}

// StrLen returns the byte length of the string at key, 0 when absent.
func (s *Store) StrLen(key string) (int, error) {
	var (
		n   int
		err error
	)
	s.view(key, func(e *Entry) {
		if e == nil {
			return
		}
		if !e.Value.isStringLike() {
			err = ErrWrongType
			return
		}
		n = len(e.Value.Bytes())
	})
	return n, err
}
