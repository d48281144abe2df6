package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestMap_GetSetDelete(t *testing.T) {
	m := New[string, int]()

	if _, ok := m.Get("k"); ok {
		t.Fatal("Get on empty map = ok")
	}

	m.Set("k", 1)
	v, ok := m.Get("k")
	if !ok || v != 1 {
		t.Fatalf("Get = %d, %v; want 1, true", v, ok)
	}

	m.Set("k", 2)
	if v, _ := m.Get("k"); v != 2 {
		t.Fatalf("Get after overwrite = %d, want 2", v)
	}

	m.Delete("k")
	if m.Has("k") {
		t.Fatal("Has after Delete = true")
	}
	// Deleting a missing key is a no-op.
	m.Delete("k")
}

func TestMap_Pop(t *testing.T) {
	m := New[string, string]()
	m.Set("k", "v")

	v, ok := m.Pop("k")
	if !ok || v != "v" {
		t.Fatalf("Pop = %q, %v; want v, true", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Fatal("second Pop = ok")
	}
}

func TestMap_GetOrSet(t *testing.T) {
	m := New[string, int]()

	v, loaded := m.GetOrSet("k", 1)
	if loaded || v != 1 {
		t.Fatalf("GetOrSet = %d, %v; want 1, false", v, loaded)
	}
	v, loaded = m.GetOrSet("k", 99)
	if !loaded || v != 1 {
		t.Fatalf("GetOrSet existing = %d, %v; want 1, true", v, loaded)
	}
}

func TestMap_Update(t *testing.T) {
	m := New[string, int]()

	got := m.Update("k", func(v int, exists bool) int {
		if exists {
			t.Fatal("exists = true on first update")
		}
		return 10
	})
	if got != 10 {
		t.Fatalf("Update = %d, want 10", got)
	}
	got = m.Update("k", func(v int, exists bool) int {
		if !exists || v != 10 {
			t.Fatalf("update saw %d, %v", v, exists)
		}
		return v + 1
	})
	if got != 11 {
		t.Fatalf("Update = %d, want 11", got)
	}
}

func TestMap_CountClear(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}
	if n := m.Count(); n != 100 {
		t.Fatalf("Count = %d, want 100", n)
	}
	m.Clear()
	if n := m.Count(); n != 0 {
		t.Fatalf("Count after Clear = %d, want 0", n)
	}
}

func TestMap_RangeKeys(t *testing.T) {
	m := New[string, int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("k%d", i), i)
	}

	seen := 0
	m.Range(func(k string, v int) bool {
		seen++
		return true
	})
	if seen != 10 {
		t.Fatalf("Range visited %d, want 10", seen)
	}

	// Early stop.
	seen = 0
	m.Range(func(k string, v int) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Fatalf("Range with early stop visited %d, want 1", seen)
	}

	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 10 || keys[0] != "k0" {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestMap_Sample(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}

	n := m.Sample(0, 10, func(k, v int) bool { return true })
	if n != 10 {
		t.Fatalf("Sample = %d, want 10", n)
	}

	// Rotating the start shard eventually reaches every entry.
	seen := make(map[int]bool)
	for start := 0; start < m.ShardCount(); start++ {
		m.Sample(start, 100, func(k, v int) bool {
			seen[k] = true
			return true
		})
	}
	if len(seen) != 100 {
		t.Fatalf("rotating samples saw %d keys, want 100", len(seen))
	}

	// Limit larger than the population returns everything once.
	n = m.Sample(3, 1000, func(k, v int) bool { return true })
	if n != 100 {
		t.Fatalf("Sample over population = %d, want 100", n)
	}
}

func TestMap_ConcurrentAccess(t *testing.T) {
	m := NewWithShards[int, int](16)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := g*500 + i
				m.Set(k, k)
				if v, ok := m.Get(k); !ok || v != k {
					t.Errorf("Get(%d) = %d, %v", k, v, ok)
					return
				}
				if k%3 == 0 {
					m.Delete(k)
				}
			}
		}(g)
	}
	wg.Wait()
}
