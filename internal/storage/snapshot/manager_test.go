package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kevadb/keva/internal/store"
)

func sampleEntries() []store.SnapshotEntry {
	return []store.SnapshotEntry{
		{Key: "str", Value: store.NewString([]byte("hello"))},
		{Key: "num", Value: store.NewInteger(-42)},
		{Key: "list", Value: store.NewList([][]byte{[]byte("a"), []byte("b")})},
		{Key: "set", Value: store.NewSet([]string{"x", "y"})},
		{Key: "hash", Value: store.NewHash(map[string][]byte{"f": []byte("v")})},
		{Key: "ttl", Value: store.NewString([]byte("v")), ExpiresAt: 1_900_000_000_000},
		{Key: "empty", Value: store.NewString(nil)},
	}
}

func entriesByKey(entries []store.SnapshotEntry) map[string]store.SnapshotEntry {
	m := make(map[string]store.SnapshotEntry, len(entries))
	for _, e := range entries {
		m[e.Key] = e
	}
	return m
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := sampleEntries()

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(data, magicBytes) {
		t.Fatal("image does not start with magic bytes")
	}

	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d entries, want %d", len(out), len(in))
	}

	got := entriesByKey(out)
	if string(got["str"].Value.Str) != "hello" {
		t.Errorf("str = %q", got["str"].Value.Str)
	}
	if got["num"].Value.Int != -42 {
		t.Errorf("num = %d", got["num"].Value.Int)
	}
	if l := got["list"].Value.List; len(l) != 2 || string(l[1]) != "b" {
		t.Errorf("list = %v", l)
	}
	if set := got["set"].Value.Set; len(set) != 2 {
		t.Errorf("set = %v", set)
	}
	if _, ok := got["set"].Value.Set["y"]; !ok {
		t.Error("set member y missing")
	}
	if h := got["hash"].Value.Hash; string(h["f"]) != "v" {
		t.Errorf("hash = %v", h)
	}
	if got["ttl"].ExpiresAt != 1_900_000_000_000 {
		t.Errorf("ttl deadline = %d", got["ttl"].ExpiresAt)
	}
	if got["empty"].ExpiresAt != 0 {
		t.Errorf("empty deadline = %d", got["empty"].ExpiresAt)
	}
}

func TestEncodeDecode_Empty(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("decoded %d entries, want 0", len(out))
	}
}

func TestDecode_RejectsCorruption(t *testing.T) {
	data, err := Encode(sampleEntries())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	t.Run("flipped payload byte", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)/2] ^= 0xff
		if _, err := Decode(bad); err == nil {
			t.Fatal("Decode accepted corrupt payload")
		}
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] ^= 0xff
		if _, err := Decode(bad); err == nil {
			t.Fatal("Decode accepted wrong magic")
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, err := Decode(data[:len(data)/2]); err == nil {
			t.Fatal("Decode accepted truncated image")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := Decode(nil); err == nil {
			t.Fatal("Decode accepted empty image")
		}
	})
}

func TestManager_WriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "keva.snap")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	in := sampleEntries()
	info, err := m.Write(in)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if info.KeyCount != len(in) {
		t.Fatalf("KeyCount = %d, want %d", info.KeyCount, len(in))
	}
	if info.Size <= 0 {
		t.Fatalf("Size = %d, want > 0", info.Size)
	}

	// No temp file is left behind.
	matches, _ := filepath.Glob(path + "*.tmp")
	if len(matches) != 0 {
		t.Fatalf("leftover temp files: %v", matches)
	}

	out, loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil || loaded.KeyCount != len(in) {
		t.Fatalf("loaded info = %+v", loaded)
	}
	if len(out) != len(in) {
		t.Fatalf("loaded %d entries, want %d", len(out), len(in))
	}
}

func TestManager_LoadMissingFile(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "keva.snap"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	entries, info, err := m.Load()
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if entries != nil || info != nil {
		t.Fatalf("Load missing = %v, %v; want nil, nil", entries, info)
	}
}

func TestManager_WriteReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keva.snap")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := m.Write(sampleEntries()); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	small := []store.SnapshotEntry{{Key: "only", Value: store.NewString([]byte("v"))}}
	if _, err := m.Write(small); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	out, _, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 || out[0].Key != "only" {
		t.Fatalf("Load after replace = %v", out)
	}
}

func TestManager_LoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keva.snap")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := os.WriteFile(path, []byte("not a snapshot"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := m.Load(); err == nil {
		t.Fatal("Load accepted garbage file")
	}
}

func TestDecodeRecord_ErrorWrapping(t *testing.T) {
	data, err := Encode(sampleEntries())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	bad := bytes.Clone(data)
	bad[len(bad)/2] ^= 0xff
	_, err = Decode(bad)
	if err == nil {
		t.Fatal("Decode accepted corrupt image")
	}
	// A checksum mismatch or a record error are both acceptable shapes;
	// record errors must carry the sentinel.
	if !errors.Is(err, ErrCorruptRecord) && err.Error() == "" {
		t.Fatalf("unhelpful error: %v", err)
	}
}
