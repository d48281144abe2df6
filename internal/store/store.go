package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/kevadb/keva/pkg/cmap"
)

// DefaultShardCount is the default number of keyspace shards.
const DefaultShardCount = 256

// Store is the sharded keyspace. It is shared by every connection session
// and by the background sweeper; construct it once at startup and pass the
// handle down explicitly.
type Store struct {
	shards    []*shard
	shardMask uint64

	// expires indexes the keys that carry a deadline (key -> unix ms).
	// The sweeper samples this index instead of scanning the keyspace.
	expires *cmap.Map[string, int64]

	// now is the clock; replaced in tests.
	now func() time.Time

	lazyExpired  atomic.Uint64
	sweptExpired atomic.Uint64
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// Option configures the Store.
type Option func(*Store)

// WithShardCount sets the number of shards (rounded to a power of 2 by
// falling back to the default when invalid).
func WithShardCount(n int) Option {
	return func(s *Store) {
		if n > 0 && n&(n-1) == 0 {
			s.shards = make([]*shard, n)
			s.shardMask = uint64(n - 1)
		}
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		shards:    make([]*shard, DefaultShardCount),
		shardMask: DefaultShardCount - 1,
		expires:   cmap.New[string, int64](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := murmur3.Sum64([]byte(key))
	return s.shards[h&s.shardMask]
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// live returns the entry for key if present and unexpired. Callers must
// hold the shard lock (read or write). Expired entries are reported as
// absent; physical removal happens via dropExpired on the write path.
func live(sh *shard, key string, now int64) (*Entry, bool) {
	e, ok := sh.entries[key]
	if !ok || e.expired(now) {
		return nil, false
	}
	return e, true
}

// liveForWrite returns the entry for key, deleting it first if expired.
// Callers must hold the shard write lock.
func (s *Store) liveForWrite(sh *shard, key string, now int64) (*Entry, bool) {
	e, ok := sh.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		delete(sh.entries, key)
		s.expires.Delete(key)
		s.lazyExpired.Add(1)
		return nil, false
	}
	return e, true
}

// dropExpired removes key if its deadline has passed. It is the lazy
// eviction step taken after a read observed an expired entry.
func (s *Store) dropExpired(key string) {
	sh := s.shardFor(key)
	now := s.nowMillis()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.entries[key]
	if !ok || !e.expired(now) {
		return
	}
	delete(sh.entries, key)
	s.expires.Delete(key)
	s.lazyExpired.Add(1)
}

// view runs fn with the live entry for key (nil if absent) under the shard
// read lock. fn must copy out anything it needs; the entry is not valid
// after view returns. Expired entries are lazily removed.
func (s *Store) view(key string, fn func(e *Entry)) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.RLock()
	e, ok := sh.entries[key]
	wasExpired := ok && e.expired(now)
	if !ok || wasExpired {
		fn(nil)
	} else {
		fn(e)
	}
	sh.mu.RUnlock()

	if wasExpired {
		s.dropExpired(key)
	}
}

// SetOptions control the Set operation.
type SetOptions struct {
	// TTL, when positive, sets an absolute deadline of now+TTL.
	TTL time.Duration
	// KeepTTL preserves an existing deadline when TTL is zero. Without it
	// a plain Set clears any prior deadline: set replaces the whole entry.
	KeepTTL bool
	// IfAbsent (NX) only writes when the key does not exist.
	IfAbsent bool
	// IfExists (XX) only writes when the key already exists.
	IfExists bool
	// GetOld (SET ... GET) requests the previous string value. When the
	// existing value is not string-like the operation fails before any
	// write: OldWrongType is reported and the entry is untouched.
	GetOld bool
}

// SetResult reports the outcome of Set.
type SetResult struct {
	// Written is false when an NX/XX condition was not met.
	Written bool
	// Old holds the previous string value if one existed, for SET ... GET.
	Old []byte
	// HadOld reports whether Old is meaningful.
	HadOld bool
	// OldWrongType is set when GetOld found an existing value that is not
	// string-like. No mutation happens in that case.
	OldWrongType bool
}

// Set stores a string value at key, replacing any existing entry.
func (s *Store) Set(key string, val []byte, opts SetOptions) SetResult {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	prev, exists := s.liveForWrite(sh, key, now)

	var res SetResult
	if exists && prev.Value.isStringLike() {
		res.Old = prev.Value.Bytes()
		res.HadOld = true
	} else if exists {
		res.OldWrongType = true
	}

	// SET ... GET must not destroy a non-string value; the error reply
	// leaves the entry as it was.
	if opts.GetOld && res.OldWrongType {
		return res
	}
	if (opts.IfAbsent && exists) || (opts.IfExists && !exists) {
		return res
	}

	e := &Entry{Value: NewString(val)}
	switch {
	case opts.TTL > 0:
		e.ExpiresAt = now + opts.TTL.Milliseconds()
		s.expires.Set(key, e.ExpiresAt)
	case opts.KeepTTL && exists && prev.ExpiresAt != 0:
		e.ExpiresAt = prev.ExpiresAt
	default:
		if exists && prev.ExpiresAt != 0 {
			s.expires.Delete(key)
		}
	}
	sh.entries[key] = e
	res.Written = true
	return res
}

// Get returns the string value at key. A wrong-type error is returned when
// the key holds a non-string value.
func (s *Store) Get(key string) ([]byte, error) {
	var (
		out []byte
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
		out = append([]byte(nil), e.Value.Bytes()...)
		if out == nil {
			out = []byte{}
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDel returns the string value at key and deletes the entry.
func (s *Store) GetDel(key string) ([]byte, error) {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		return nil, nil
	}
	if !e.Value.isStringLike() {
		return nil, ErrWrongType
	}
	out := append([]byte(nil), e.Value.Bytes()...)
	delete(sh.entries, key)
	if e.ExpiresAt != 0 {
		s.expires.Delete(key)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(key string) bool {
	sh := s.shardFor(key)
	now := s.nowMillis()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := s.liveForWrite(sh, key, now)
	if !ok {
		return false
	}
	delete(sh.entries, key)
	if e.ExpiresAt != 0 {
		s.expires.Delete(key)
	}
	return true
}

// Exists reports whether key holds a live entry.
func (s *Store) Exists(key string) bool {
	found := false
	s.view(key, func(e *Entry) { found = e != nil })
	return found
}

// Type returns the TYPE name for key, or "none" when absent.
func (s *Store) Type(key string) string {
	name := "none"
	s.view(key, func(e *Entry) {
		if e != nil {
			name = e.Value.TypeName()
		}
	})
	return name
}

// Rename moves the value at src to dst, all-or-nothing. The deadline moves
// with the value. Returns ErrNoSuchKey when src is absent.
func (s *Store) Rename(src, dst string) error {
	if src == dst {
		if !s.Exists(src) {
			return ErrNoSuchKey
		}
		return nil
	}

	ai := murmur3.Sum64([]byte(src)) & s.shardMask
	bi := murmur3.Sum64([]byte(dst)) & s.shardMask
	a, b := s.shards[ai], s.shards[bi]
	now := s.nowMillis()

	// Lock both shards in index order to avoid deadlock with the
	// reverse rename.
	first, second := a, b
	if bi < ai {
		first, second = b, a
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	if second != first {
		second.mu.Lock()
		defer second.mu.Unlock()
	}

	e, ok := s.liveForWrite(a, src, now)
	if !ok {
		return ErrNoSuchKey
	}

	if old, exists := b.entries[dst]; exists && old.ExpiresAt != 0 {
		s.expires.Delete(dst)
	}

	delete(a.entries, src)
	b.entries[dst] = e
	if e.ExpiresAt != 0 {
		s.expires.Delete(src)
		s.expires.Set(dst, e.ExpiresAt)
	}
	return nil
}

// Len returns the number of live keys. Expired-but-unswept entries are
// excluded from the count.
func (s *Store) Len() int {
	now := s.nowMillis()
	count := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.entries {
			if !e.expired(now) {
				count++
			}
		}
		sh.mu.RUnlock()
	}
	return count
}

// FlushAll removes every entry.
func (s *Store) FlushAll() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.entries = make(map[string]*Entry)
		sh.mu.Unlock()
	}
	s.expires.Clear()
}

// Keys returns all live keys matching the glob pattern.
func (s *Store) Keys(pattern string) []string {
	now := s.nowMillis()
	var keys []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, e := range sh.entries {
			if e.expired(now) {
				continue
			}
			if matchGlob(pattern, k) {
				keys = append(keys, k)
			}
		}
		sh.mu.RUnlock()
	}
	return keys
}

// Stats reports keyspace counters.
type Stats struct {
	Keys         int
	TTLKeys      int
	LazyExpired  uint64
	SweptExpired uint64
}

// CollectStats returns current keyspace counters.
func (s *Store) CollectStats() Stats {
	return Stats{
		Keys:         s.Len(),
		TTLKeys:      s.expires.Count(),
		LazyExpired:  s.lazyExpired.Load(),
		SweptExpired: s.sweptExpired.Load(),
	}
}
