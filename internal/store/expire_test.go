package store

import (
	"testing"
	"time"
)

func TestExpire_Lifecycle(t *testing.T) {
	s, clock := newTestStore(t)

	s.Set("k", []byte("v"), SetOptions{})
	if ttl := s.TTL("k"); ttl != TTLNoExpiry {
		t.Fatalf("TTL without expiry = %d, want %d", ttl, TTLNoExpiry)
	}

	if !s.Expire("k", 10*time.Second) {
		t.Fatal("Expire on existing key = false")
	}
	if ttl := s.TTL("k"); ttl != 10 {
		t.Fatalf("TTL = %d, want 10", ttl)
	}
	if pttl := s.PTTL("k"); pttl != 10_000 {
		t.Fatalf("PTTL = %d, want 10000", pttl)
	}

	// The remaining time shrinks as the clock moves.
	clock.Advance(4 * time.Second)
	if pttl := s.PTTL("k"); pttl != 6_000 {
		t.Fatalf("PTTL after 4s = %d, want 6000", pttl)
	}

	clock.Advance(7 * time.Second)
	if s.Exists("k") {
		t.Fatal("key survived its deadline")
	}
	if ttl := s.TTL("k"); ttl != TTLNoKey {
		t.Fatalf("TTL after expiry = %d, want %d", ttl, TTLNoKey)
	}
}

func TestExpire_MissingKey(t *testing.T) {
	s, _ := newTestStore(t)

	if s.Expire("missing", time.Second) {
		t.Fatal("Expire on missing key = true")
	}
	if ttl := s.TTL("missing"); ttl != TTLNoKey {
		t.Fatalf("TTL missing = %d, want %d", ttl, TTLNoKey)
	}
}

func TestExpire_NonPositiveDeletes(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("k", []byte("v"), SetOptions{})
	if !s.Expire("k", 0) {
		t.Fatal("Expire 0 on existing key = false")
	}
	if s.Exists("k") {
		t.Fatal("key survived Expire 0")
	}

	s.Set("k", []byte("v"), SetOptions{})
	s.Expire("k", -time.Second)
	if s.Exists("k") {
		t.Fatal("key survived negative Expire")
	}
}

func TestExpire_Overwrite(t *testing.T) {
	s, clock := newTestStore(t)

	s.Set("k", []byte("v"), SetOptions{})
	s.Expire("k", time.Second)
	// A later EXPIRE replaces the previous deadline entirely.
	s.Expire("k", time.Hour)

	clock.Advance(10 * time.Second)
	if !s.Exists("k") {
		t.Fatal("key expired despite extended deadline")
	}
	if ttl := s.TTL("k"); ttl != 3600-10 {
		t.Fatalf("TTL = %d, want %d", ttl, 3600-10)
	}
}

func TestPersist(t *testing.T) {
	s, clock := newTestStore(t)

	s.Set("k", []byte("v"), SetOptions{TTL: time.Second})
	if !s.Persist("k") {
		t.Fatal("Persist with TTL = false")
	}
	if s.Persist("k") {
		t.Fatal("Persist without TTL = true")
	}

	clock.Advance(time.Hour)
	if !s.Exists("k") {
		t.Fatal("persisted key expired")
	}
}

func TestTTL_RoundsUp(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("k", []byte("v"), SetOptions{TTL: 1500 * time.Millisecond})
	if ttl := s.TTL("k"); ttl != 2 {
		t.Fatalf("TTL = %d, want 2", ttl)
	}
}

func TestLazyExpiry_CountsInStats(t *testing.T) {
	s, clock := newTestStore(t)

	s.Set("k", []byte("v"), SetOptions{TTL: time.Second})
	clock.Advance(2 * time.Second)

	// The read observes absence and removes the corpse.
	if got, _ := s.Get("k"); got != nil {
		t.Fatalf("Get expired = %q, want nil", got)
	}

	stats := s.CollectStats()
	if stats.LazyExpired != 1 {
		t.Fatalf("LazyExpired = %d, want 1", stats.LazyExpired)
	}
	if stats.TTLKeys != 0 {
		t.Fatalf("TTLKeys = %d, want 0", stats.TTLKeys)
	}
}
