// Package snapshot persists a point-in-time image of the keva keyspace.
//
// File layout:
//
//	magic "KEVASNAP"
//	u32 header length, JSON header {version, created_at, key_count}
//	u32 payload length, gzip-compressed records
//	sha256 checksum of everything before it (32 bytes)
//
// Each record encodes one entry: length-prefixed key, a value-type tag,
// the type-specific payload, and an optional expiration timestamp. All
// integers are big-endian. A malformed record aborts the whole load; the
// server never starts from a partially decoded image.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"

	"github.com/kevadb/keva/internal/store"
)

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic bytes")
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
	ErrCorruptRecord    = errors.New("snapshot: corrupt record")
)

var magicBytes = []byte("KEVASNAP")

const (
	headerVersion = 1
	checksumSize  = 32

	// maxElemLen bounds any single length field while decoding, as a
	// sanity check against corrupt payloads.
	maxElemLen = 512 * 1024 * 1024
)

type fileHeader struct {
	Version   int   `json:"version"`
	CreatedAt int64 `json:"created_at"`
	KeyCount  int   `json:"key_count"`
}

// encodeRecords serializes entries and compresses the result.
func encodeRecords(entries []store.SnapshotEntry) ([]byte, error) {
	var raw bytes.Buffer
	for _, rec := range entries {
		if err := encodeRecord(&raw, rec); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("snapshot: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: compress: %w", err)
	}
	return out.Bytes(), nil
}

func encodeRecord(w *bytes.Buffer, rec store.SnapshotEntry) error {
	writeBytes(w, []byte(rec.Key))
	w.WriteByte(byte(rec.Value.Type))

	switch rec.Value.Type {
	case store.TypeString:
		writeBytes(w, rec.Value.Str)
	case store.TypeInteger:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(rec.Value.Int))
		w.Write(buf[:])
	case store.TypeList:
		writeUint32(w, uint32(len(rec.Value.List)))
		for _, el := range rec.Value.List {
			writeBytes(w, el)
		}
	case store.TypeSet:
		writeUint32(w, uint32(len(rec.Value.Set)))
		for m := range rec.Value.Set {
			writeBytes(w, []byte(m))
		}
	case store.TypeHash:
		writeUint32(w, uint32(len(rec.Value.Hash)))
		for f, v := range rec.Value.Hash {
			writeBytes(w, []byte(f))
			writeBytes(w, v)
		}
	default:
		return fmt.Errorf("snapshot: unknown value type %d", rec.Value.Type)
	}

	if rec.ExpiresAt != 0 {
		w.WriteByte(1)
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(rec.ExpiresAt))
		w.Write(buf[:])
	} else {
		w.WriteByte(0)
	}
	return nil
}

// decodeRecords decompresses and decodes a record payload.
func decodeRecords(payload []byte) ([]store.SnapshotEntry, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompress: %w", err)
	}
	defer zr.Close()

	br := bufio.NewReader(zr)
	var entries []store.SnapshotEntry
	for {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, fmt.Errorf("snapshot: read record: %w", err)
		}
		rec, err := decodeRecord(br)
		if err != nil {
			return nil, err
		}
		entries = append(entries, rec)
	}
}

func decodeRecord(r *bufio.Reader) (store.SnapshotEntry, error) {
	var rec store.SnapshotEntry

	key, err := readBytes(r)
	if err != nil {
		return rec, err
	}
	rec.Key = string(key)

	tag, err := r.ReadByte()
	if err != nil {
		return rec, fmt.Errorf("%w: missing type tag", ErrCorruptRecord)
	}

	switch store.ValueType(tag) {
	case store.TypeString:
		b, err := readBytes(r)
		if err != nil {
			return rec, err
		}
		rec.Value = store.NewString(b)
	case store.TypeInteger:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return rec, fmt.Errorf("%w: short integer", ErrCorruptRecord)
		}
		rec.Value = store.NewInteger(int64(binary.BigEndian.Uint64(buf[:])))
	case store.TypeList:
		n, err := readUint32(r)
		if err != nil {
			return rec, err
		}
		elems := make([][]byte, 0, n)
		for i := uint32(0); i < n; i++ {
			el, err := readBytes(r)
			if err != nil {
				return rec, err
			}
			elems = append(elems, el)
		}
		rec.Value = store.NewList(elems)
	case store.TypeSet:
		n, err := readUint32(r)
		if err != nil {
			return rec, err
		}
		members := make([]string, 0, n)
		for i := uint32(0); i < n; i++ {
			m, err := readBytes(r)
			if err != nil {
				return rec, err
			}
			members = append(members, string(m))
		}
		rec.Value = store.NewSet(members)
	case store.TypeHash:
		n, err := readUint32(r)
		if err != nil {
			return rec, err
		}
		fields := make(map[string][]byte, n)
		for i := uint32(0); i < n; i++ {
			f, err := readBytes(r)
			if err != nil {
				return rec, err
			}
			v, err := readBytes(r)
			if err != nil {
				return rec, err
			}
			fields[string(f)] = v
		}
		rec.Value = store.NewHash(fields)
	default:
		return rec, fmt.Errorf("%w: unknown type tag %d", ErrCorruptRecord, tag)
	}

	flag, err := r.ReadByte()
	if err != nil {
		return rec, fmt.Errorf("%w: missing ttl flag", ErrCorruptRecord)
	}
	switch flag {
	case 0:
	case 1:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return rec, fmt.Errorf("%w: short deadline", ErrCorruptRecord)
		}
		rec.ExpiresAt = int64(binary.BigEndian.Uint64(buf[:]))
	default:
		return rec, fmt.Errorf("%w: invalid ttl flag %d", ErrCorruptRecord, flag)
	}
	return rec, nil
}

func writeUint32(w *bytes.Buffer, n uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	w.Write(buf[:])
}

func writeBytes(w *bytes.Buffer, b []byte) {
	writeUint32(w, uint32(len(b)))
	w.Write(b)
}

func readUint32(r *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: short length", ErrCorruptRecord)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readBytes(r *bufio.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxElemLen || n > math.MaxInt32 {
		return nil, fmt.Errorf("%w: length %d out of range", ErrCorruptRecord, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: short element", ErrCorruptRecord)
	}
	return b, nil
}
