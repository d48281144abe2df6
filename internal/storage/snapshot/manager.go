package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kevadb/keva/internal/store"
)

// Manager reads and writes the snapshot file at one canonical path.
// Writes go to a temporary file in the same directory and are renamed
// over the canonical path, so a crash mid-dump never corrupts the
// previously durable snapshot.
type Manager struct {
	path string
}

// NewManager creates a manager for the given snapshot path.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot: path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("snapshot: create dir: %w", err)
		}
	}
	return &Manager{path: path}, nil
}

// Path returns the canonical snapshot path.
func (m *Manager) Path() string {
	return m.path
}

// Info describes a written or loaded snapshot.
type Info struct {
	KeyCount  int
	Size      int64
	CreatedAt int64
}

// Encode serializes entries into a complete snapshot image: magic, header,
// compressed records, checksum. The same bytes serve a replication-style
// full resynchronization.
func Encode(entries []store.SnapshotEntry) ([]byte, error) {
	payload, err := encodeRecords(entries)
	if err != nil {
		return nil, err
	}

	hdr, err := json.Marshal(fileHeader{
		Version:   headerVersion,
		CreatedAt: time.Now().UnixMilli(),
		KeyCount:  len(entries),
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal header: %w", err)
	}

	var out bytes.Buffer
	out.Write(magicBytes)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(hdr)))
	out.Write(lenBuf[:])
	out.Write(hdr)

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out.Write(lenBuf[:])
	out.Write(payload)

	sum := sha256.Sum256(out.Bytes())
	out.Write(sum[:])
	return out.Bytes(), nil
}

// Decode parses a snapshot image produced by Encode. Any inconsistency is
// fatal: the caller must not start from a partially decoded image.
func Decode(data []byte) ([]store.SnapshotEntry, error) {
	entries, _, err := decodeImage(data)
	return entries, err
}

func decodeImage(data []byte) ([]store.SnapshotEntry, fileHeader, error) {
	var hdr fileHeader
	if len(data) < len(magicBytes)+checksumSize {
		return nil, hdr, ErrChecksumMismatch
	}

	body := data[:len(data)-checksumSize]
	want := data[len(data)-checksumSize:]
	sum := sha256.Sum256(body)
	if !bytes.Equal(sum[:], want) {
		return nil, hdr, ErrChecksumMismatch
	}

	if !bytes.HasPrefix(body, magicBytes) {
		return nil, hdr, ErrInvalidMagic
	}
	body = body[len(magicBytes):]

	if len(body) < 4 {
		return nil, hdr, ErrCorruptRecord
	}
	hdrLen := binary.BigEndian.Uint32(body[:4])
	body = body[4:]
	if uint32(len(body)) < hdrLen {
		return nil, hdr, ErrCorruptRecord
	}

	if err := json.Unmarshal(body[:hdrLen], &hdr); err != nil {
		return nil, hdr, fmt.Errorf("snapshot: unmarshal header: %w", err)
	}
	if hdr.Version != headerVersion {
		return nil, hdr, fmt.Errorf("snapshot: unsupported version %d", hdr.Version)
	}
	body = body[hdrLen:]

	if len(body) < 4 {
		return nil, hdr, ErrCorruptRecord
	}
	payloadLen := binary.BigEndian.Uint32(body[:4])
	body = body[4:]
	if uint32(len(body)) != payloadLen {
		return nil, hdr, ErrCorruptRecord
	}

	entries, err := decodeRecords(body)
	if err != nil {
		return nil, hdr, err
	}
	if len(entries) != hdr.KeyCount {
		return nil, hdr, fmt.Errorf("%w: header says %d keys, decoded %d",
			ErrCorruptRecord, hdr.KeyCount, len(entries))
	}
	return entries, hdr, nil
}

// Write dumps entries to the canonical path atomically and returns
// metadata about the written image.
func (m *Manager) Write(entries []store.SnapshotEntry) (*Info, error) {
	data, err := Encode(entries)
	if err != nil {
		return nil, err
	}

	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("snapshot: write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close: %w", err)
	}

	if err := os.Rename(tmp, m.path); err != nil {
		return nil, fmt.Errorf("snapshot: rename: %w", err)
	}

	return &Info{
		KeyCount:  len(entries),
		Size:      int64(len(data)),
		CreatedAt: time.Now().UnixMilli(),
	}, nil
}

// Load reads the canonical snapshot. An absent file is an empty dataset,
// not an error; any other failure is fatal for startup.
func (m *Manager) Load() ([]store.SnapshotEntry, *Info, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("snapshot: read: %w", err)
	}

	entries, hdr, err := decodeImage(data)
	if err != nil {
		return nil, nil, err
	}
	return entries, &Info{
		KeyCount:  len(entries),
		Size:      int64(len(data)),
		CreatedAt: hdr.CreatedAt,
	}, nil
}
