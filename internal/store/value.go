// Package store implements the in-memory keyspace for keva.
//
// It provides a sharded, concurrent mapping from key to typed value with
// optional per-key expiration. All mutations on a single key are
// linearizable: they run under the owning shard's write lock. Operations
// on different keys only contend when the keys hash to the same shard.
package store

import (
	"errors"
	"strconv"
)

// ValueType tags the variant held by a Value.
type ValueType uint8

const (
	TypeString ValueType = iota + 1
	TypeInteger
	TypeList
	TypeSet
	TypeHash
)

// Errors reported by typed operations. The server layer maps these to
// wire-level error replies.
var (
	ErrWrongType  = errors.New("store: operation against a key holding the wrong kind of value")
	ErrNotInteger = errors.New("store: value is not an integer or out of range")
	ErrNotFloat   = errors.New("store: value is not a valid float")
	ErrOverflow   = errors.New("store: increment or decrement would overflow")
	ErrNoSuchKey  = errors.New("store: no such key")
)

// Value is a tagged union over the supported value variants. Exactly the
// field selected by Type is meaningful; command handlers match on Type and
// reject mismatches rather than coercing.
type Value struct {
	Type ValueType

	Str  []byte
	Int  int64
	List [][]byte
	Set  map[string]struct{}
	Hash map[string][]byte
}

// NewString returns a string value.
func NewString(b []byte) Value {
	return Value{Type: TypeString, Str: b}
}

// NewInteger returns an integer value.
func NewInteger(n int64) Value {
	return Value{Type: TypeInteger, Int: n}
}

// NewList returns a list value.
func NewList(elems [][]byte) Value {
	return Value{Type: TypeList, List: elems}
}

// NewSet returns a set value over the given members.
func NewSet(members []string) Value {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return Value{Type: TypeSet, Set: set}
}

// NewHash returns a hash value.
func NewHash(fields map[string][]byte) Value {
	if fields == nil {
		fields = make(map[string][]byte)
	}
	return Value{Type: TypeHash, Hash: fields}
}

// TypeName returns the name reported by the TYPE command. Integers are a
// storage encoding of strings, so they report "string" and interoperate
// with the string commands.
func (v Value) TypeName() string {
	switch v.Type {
	case TypeString, TypeInteger:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeHash:
		return "hash"
	default:
		return "none"
	}
}

// isStringLike reports whether string commands may operate on the value.
func (v Value) isStringLike() bool {
	return v.Type == TypeString || v.Type == TypeInteger
}

// Bytes renders a string-like value as bytes. Only valid for TypeString
// and TypeInteger.
func (v Value) Bytes() []byte {
	if v.Type == TypeInteger {
		return strconv.AppendInt(nil, v.Int, 10)
	}
	return v.Str
}

// asInt parses a string-like value as a signed 64-bit integer.
func (v Value) asInt() (int64, error) {
	if v.Type == TypeInteger {
		return v.Int, nil
	}
	n, err := strconv.ParseInt(string(v.Str), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}

// asFloat parses a string-like value as a float64.
func (v Value) asFloat() (float64, error) {
	if v.Type == TypeInteger {
		return float64(v.Int), nil
	}
	f, err := strconv.ParseFloat(string(v.Str), 64)
	if err != nil {
		return 0, ErrNotFloat
	}
	return f, nil
}

// clone returns a deep copy of the value. Snapshot dumps clone so that
// serialization never observes a container mid-mutation.
func (v Value) clone() Value {
	out := Value{Type: v.Type, Int: v.Int}
	switch v.Type {
	case TypeString:
		out.Str = append([]byte(nil), v.Str...)
	case TypeList:
		out.List = make([][]byte, len(v.List))
		for i, e := range v.List {
			out.List[i] = append([]byte(nil), e...)
		}
	case TypeSet:
		out.Set = make(map[string]struct{}, len(v.Set))
		for m := range v.Set {
			out.Set[m] = struct{}{}
		}
	case TypeHash:
		out.Hash = make(map[string][]byte, len(v.Hash))
		for f, b := range v.Hash {
			out.Hash[f] = append([]byte(nil), b...)
		}
	}
	return out
}

// Entry pairs a value with its expiration deadline.
// ExpiresAt is a wall-clock unix-millisecond timestamp; zero means the
// entry never expires.
type Entry struct {
	Value     Value
	ExpiresAt int64
}

// expired reports whether the entry's deadline has passed at now (unix ms).
func (e *Entry) expired(now int64) bool {
	return e.ExpiresAt != 0 && e.ExpiresAt <= now
}
