// Package operation provides types and interfaces for storage operations.
// It defines operation types and configurations used in transactional contexts.
//
// An Operation is a description of one store action, not its execution: it can be
// run on its own or placed in a branch of a transaction.
package operation

import (
	"slices"

	"github.com/tarantool/go-option"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/kv"
)

// Operation represents a storage operation to be executed.
// This is used within transactions and other operation contexts.
// Operations are immutable; accessors return copies of the underlying data.
type Operation struct {
	typ          Type
	key          []byte
	value        []byte
	rangeEnd     []byte
	prefix       bool
	prevKV       bool
	lease        option.Generic[int64]
	limit        int64
	sortTarget   SortTarget
	sortOrder    SortOrder
	revision     int64
	keysOnly     bool
	countOnly    bool
	serializable bool
}

// New creates an operation of the given type. Value is only meaningful for Put.
// An option that does not fit the type, conflicting options, an empty key where
// one is required and a value passed to Get or Delete are reported as
// errdefs.ErrInvalidArgument.
func New(typ Type, key []byte, value []byte, opts ...Option) (Operation, error) {
	if !typ.Valid() {
		return Operation{}, errdefs.InvalidArgument("unknown operation type %d", int(typ))
	}

	if typ != TypePut && value != nil {
		return Operation{}, errdefs.InvalidArgument("%s operation does not take a value", typ)
	}

	var sets settings

	for _, opt := range opts {
		if opt.apply == nil {
			return Operation{}, errdefs.InvalidArgument("uninitialized option")
		}

		if !opt.Supports(typ) {
			return Operation{}, errdefs.InvalidArgument("option %s is not supported by %s operation", opt.name, typ)
		}

		if err := opt.apply(&sets); err != nil {
			return Operation{}, err
		}
	}

	rangeEnd, err := resolveRangeEnd(key, sets)
	if err != nil {
		return Operation{}, err
	}

	if len(key) == 0 && rangeEnd == nil {
		return Operation{}, errdefs.InvalidArgument("%s operation key is empty", typ)
	}

	if sets.keysOnly && sets.countOnly {
		return Operation{}, errdefs.InvalidArgument("options WithKeysOnly and WithCountOnly are exclusive")
	}

	if typ == TypePut && value == nil {
		value = []byte{}
	}

	return Operation{
		typ:          typ,
		key:          slices.Clone(key),
		value:        slices.Clone(value),
		rangeEnd:     rangeEnd,
		prefix:       sets.prefix,
		prevKV:       sets.prevKV,
		lease:        sets.lease,
		limit:        sets.limit,
		sortTarget:   sets.sortTarget,
		sortOrder:    sets.sortOrder,
		revision:     sets.revision,
		keysOnly:     sets.keysOnly,
		countOnly:    sets.countOnly,
		serializable: sets.serializable,
	}, nil
}

func resolveRangeEnd(key []byte, sets settings) ([]byte, error) {
	end, hasEnd := sets.rangeEnd.Get()

	selectors := 0

	for _, set := range []bool{hasEnd, sets.prefix, sets.fromKey} {
		if set {
			selectors++
		}
	}

	switch {
	case selectors > 1:
		return nil, errdefs.InvalidArgument("options WithRange, WithPrefix and WithFromKey are exclusive")
	case sets.prefix:
		return kv.PrefixEnd(key), nil
	case sets.fromKey:
		return kv.UnboundedEnd(), nil
	case hasEnd && !kv.IsUnboundedEnd(end) && slices.Compare(end, key) <= 0:
		return nil, errdefs.InvalidArgument("range end %q is not after key %q", end, key)
	case hasEnd:
		return end, nil
	default:
		return nil, nil
	}
}

// NewGet creates a Get operation.
func NewGet(key []byte, opts ...Option) (Operation, error) {
	return New(TypeGet, key, nil, opts...)
}

// NewPut creates a Put operation.
func NewPut(key []byte, value []byte, opts ...Option) (Operation, error) {
	return New(TypePut, key, value, opts...)
}

// NewDelete creates a Delete operation.
func NewDelete(key []byte, opts ...Option) (Operation, error) {
	return New(TypeDelete, key, nil, opts...)
}

// Must returns op or panics if err is not nil.
func Must(op Operation, err error) Operation {
	if err != nil {
		panic(err)
	}

	return op
}

// Get creates a Get operation. It panics when NewGet would return an error.
func Get(key []byte, opts ...Option) Operation {
	return Must(NewGet(key, opts...))
}

// Put creates a Put operation. It panics when NewPut would return an error.
func Put(key []byte, value []byte, opts ...Option) Operation {
	return Must(NewPut(key, value, opts...))
}

// Delete creates a Delete operation. It panics when NewDelete would return an error.
func Delete(key []byte, opts ...Option) Operation {
	return Must(NewDelete(key, opts...))
}

// IsZero reports whether o is the zero Operation, which was not built by New
// and cannot be executed.
func (o Operation) IsZero() bool {
	return o.typ == TypeGet && len(o.key) == 0 && o.rangeEnd == nil
}

// Type returns the operation type.
func (o Operation) Type() Type {
	return o.typ
}

// Key returns the key the operation starts at.
func (o Operation) Key() []byte {
	return slices.Clone(o.key)
}

// Value returns the value written by a Put operation, nil for Get and Delete.
func (o Operation) Value() []byte {
	return slices.Clone(o.value)
}

// RangeEnd returns the end of the range [Key, RangeEnd) the operation applies to,
// or nil for a single-key operation.
func (o Operation) RangeEnd() []byte {
	return slices.Clone(o.rangeEnd)
}

// IsRange reports whether the operation applies to a range of keys.
func (o Operation) IsRange() bool {
	return o.rangeEnd != nil
}

// IsPrefix reports whether the range was built with WithPrefix.
func (o Operation) IsPrefix() bool {
	return o.prefix
}

// PrevKV reports whether previous key-value pairs are returned.
func (o Operation) PrevKV() bool {
	return o.prevKV
}

// Lease returns the lease attached by a Put operation.
func (o Operation) Lease() (int64, bool) {
	return o.lease.Get()
}

// Limit returns the result cap of a Get operation, zero for no limit.
func (o Operation) Limit() int64 {
	return o.limit
}

// Sort returns the ordering of Get results.
func (o Operation) Sort() (SortTarget, SortOrder) {
	return o.sortTarget, o.sortOrder
}

// Revision returns the revision a Get operation reads at, zero for the latest one.
func (o Operation) Revision() int64 {
	return o.revision
}

// KeysOnly reports whether a Get operation omits values.
func (o Operation) KeysOnly() bool {
	return o.keysOnly
}

// CountOnly reports whether a Get operation returns only the count of matching keys.
func (o Operation) CountOnly() bool {
	return o.countOnly
}

// Serializable reports whether a Get operation may skip the quorum read.
func (o Operation) Serializable() bool {
	return o.serializable
}
