package store

import (
	"sort"
	"testing"
)

func TestSet_AddRem(t *testing.T) {
	s, _ := newTestStore(t)

	n, err := s.SAdd("s", []string{"a", "b", "a"})
	if err != nil || n != 2 {
		t.Fatalf("SAdd = %d, %v; want 2", n, err)
	}
	n, err = s.SAdd("s", []string{"b", "c"})
	if err != nil || n != 1 {
		t.Fatalf("SAdd = %d, %v; want 1", n, err)
	}

	n, err = s.SRem("s", []string{"a", "missing"})
	if err != nil || n != 1 {
		t.Fatalf("SRem = %d, %v; want 1", n, err)
	}

	members, err := s.SMembers("s")
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	sort.Strings(members)
	if len(members) != 2 || members[0] != "b" || members[1] != "c" {
		t.Fatalf("SMembers = %v, want [b c]", members)
	}
}

func TestSet_EmptiedKeyDeleted(t *testing.T) {
	s, _ := newTestStore(t)

	s.SAdd("s", []string{"a"})
	s.SRem("s", []string{"a"})
	if s.Exists("s") {
		t.Fatal("emptied set key still exists")
	}
}

func TestSet_Membership(t *testing.T) {
	s, _ := newTestStore(t)

	s.SAdd("s", []string{"a"})
	if ok, _ := s.SIsMember("s", "a"); !ok {
		t.Fatal("SIsMember(a) = false")
	}
	if ok, _ := s.SIsMember("s", "b"); ok {
		t.Fatal("SIsMember(b) = true")
	}
	if ok, _ := s.SIsMember("missing", "a"); ok {
		t.Fatal("SIsMember on missing key = true")
	}

	n, err := s.SCard("s")
	if err != nil || n != 1 {
		t.Fatalf("SCard = %d, %v; want 1", n, err)
	}
	n, err = s.SCard("missing")
	if err != nil || n != 0 {
		t.Fatalf("SCard missing = %d, %v; want 0", n, err)
	}
}
