// Package kv provides key-value data structures and interfaces for storage operations.
// It defines the core KeyValue type used throughout the module.
package kv

import (
	"bytes"
	"slices"
)

// KeyValue represents a key-value pair with revision metadata.
// This structure is returned by Get operations and carries previous values of
// Put and Delete operations when they are requested.
type KeyValue struct {
	// Key is the serialized representation of the key.
	Key []byte `msgpack:"key"`
	// Value is the serialized representation of the value.
	// It is empty when the Get operation asked for keys only.
	Value []byte `msgpack:"value"`
	// CreateRevision is the revision of the last creation of this key.
	CreateRevision int64 `msgpack:"create_revision"`
	// ModRevision is the revision number of the last modification to this key.
	ModRevision int64 `msgpack:"mod_revision"`
	// Version is the number of modifications since the key was created.
	// Deleting a key resets its version to zero.
	Version int64 `msgpack:"version"`
	// Lease is the id of the lease attached to the key, zero if there is none.
	Lease int64 `msgpack:"lease"`
}

// Clone returns a deep copy of the key-value pair.
func (k KeyValue) Clone() KeyValue {
	out := k
	out.Key = slices.Clone(k.Key)
	out.Value = slices.Clone(k.Value)

	return out
}

// Equal reports whether two key-value pairs hold the same key, value and metadata.
func (k KeyValue) Equal(other KeyValue) bool {
	return bytes.Equal(k.Key, other.Key) &&
		bytes.Equal(k.Value, other.Value) &&
		k.CreateRevision == other.CreateRevision &&
		k.ModRevision == other.ModRevision &&
		k.Version == other.Version &&
		k.Lease == other.Lease
}

// noEnd is the range end that selects every key greater than or equal to the start key.
var noEnd = []byte{0}

// UnboundedEnd returns the range end that selects all keys from the start key onwards.
func UnboundedEnd() []byte {
	return slices.Clone(noEnd)
}

// IsUnboundedEnd reports whether end selects all keys from the start key onwards.
func IsUnboundedEnd(end []byte) bool {
	return bytes.Equal(end, noEnd)
}

// PrefixEnd returns the range end that selects every key starting with prefix.
// For a prefix made only of 0xff bytes (or an empty one) it returns the unbounded end.
func PrefixEnd(prefix []byte) []byte {
	end := slices.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++

			return end[:i+1]
		}
	}

	return UnboundedEnd()
}

// InRange reports whether key belongs to the range [start, end).
// An empty end selects the single key start; the unbounded end selects every key >= start.
func InRange(key, start, end []byte) bool {
	switch {
	case len(end) == 0:
		return bytes.Equal(key, start)
	case IsUnboundedEnd(end):
		return bytes.Compare(key, start) >= 0
	default:
		return bytes.Compare(key, start) >= 0 && bytes.Compare(key, end) < 0
	}
}
