package operation

import (
	"slices"

	"github.com/tarantool/go-option"

	"github.com/Dataman-Cloud/jetcd/errdefs"
)

// settings is the option bundle an Option mutates while an Operation is built.
type settings struct {
	rangeEnd     option.Generic[[]byte]
	prefix       bool
	fromKey      bool
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

// Option configures an operation. Every option is valid only for some operation
// types; applying it to another type fails with errdefs.ErrInvalidArgument.
type Option struct {
	name    string
	allowed []Type
	apply   func(*settings) error
}

// Name returns the name of the option, as used in error messages.
func (o Option) Name() string {
	return o.name
}

// Supports reports whether the option may be used with operations of type typ.
func (o Option) Supports(typ Type) bool {
	return slices.Contains(o.allowed, typ)
}

func newOption(name string, apply func(*settings) error, allowed ...Type) Option {
	return Option{
		name:    name,
		allowed: allowed,
		apply:   apply,
	}
}

// WithRange makes a Get or Delete operation apply to the keys in [key, end).
// kv.UnboundedEnd() selects every key greater than or equal to key.
func WithRange(end []byte) Option {
	end = slices.Clone(end)

	return newOption("WithRange", func(s *settings) error {
		if len(end) == 0 {
			return errdefs.InvalidArgument("range end is empty")
		}

		s.rangeEnd = option.Some(end)

		return nil
	}, TypeGet, TypeDelete)
}

// WithPrefix makes a Get or Delete operation apply to every key starting with key.
func WithPrefix() Option {
	return newOption("WithPrefix", func(s *settings) error {
		s.prefix = true

		return nil
	}, TypeGet, TypeDelete)
}

// WithFromKey makes a Get or Delete operation apply to every key greater than or equal to key.
func WithFromKey() Option {
	return newOption("WithFromKey", func(s *settings) error {
		s.fromKey = true

		return nil
	}, TypeGet, TypeDelete)
}

// WithPrevKV makes a Put or Delete operation return the key-value pairs it replaced or removed.
func WithPrevKV() Option {
	return newOption("WithPrevKV", func(s *settings) error {
		s.prevKV = true

		return nil
	}, TypePut, TypeDelete)
}

// WithLease attaches the lease with the given id to the key written by a Put operation.
func WithLease(id int64) Option {
	return newOption("WithLease", func(s *settings) error {
		if id <= 0 {
			return errdefs.InvalidArgument("lease id must be positive, got %d", id)
		}

		s.lease = option.Some(id)

		return nil
	}, TypePut)
}

// WithLimit caps the number of key-value pairs returned by a Get operation. Zero means no limit.
func WithLimit(limit int64) Option {
	return newOption("WithLimit", func(s *settings) error {
		if limit < 0 {
			return errdefs.InvalidArgument("limit must not be negative, got %d", limit)
		}

		s.limit = limit

		return nil
	}, TypeGet)
}

// WithSort orders the results of a Get operation.
func WithSort(target SortTarget, order SortOrder) Option {
	return newOption("WithSort", func(s *settings) error {
		switch {
		case !target.Valid():
			return errdefs.InvalidArgument("unknown sort target %d", int(target))
		case !order.Valid():
			return errdefs.InvalidArgument("unknown sort order %d", int(order))
		}

		s.sortTarget = target
		s.sortOrder = order

		return nil
	}, TypeGet)
}

// WithRevision makes a Get operation read the store as of the given revision. Zero means latest.
func WithRevision(revision int64) Option {
	return newOption("WithRevision", func(s *settings) error {
		if revision < 0 {
			return errdefs.InvalidArgument("revision must not be negative, got %d", revision)
		}

		s.revision = revision

		return nil
	}, TypeGet)
}

// WithKeysOnly makes a Get operation return keys and metadata without values.
func WithKeysOnly() Option {
	return newOption("WithKeysOnly", func(s *settings) error {
		s.keysOnly = true

		return nil
	}, TypeGet)
}

// WithCountOnly makes a Get operation return only the number of matching keys.
func WithCountOnly() Option {
	return newOption("WithCountOnly", func(s *settings) error {
		s.countOnly = true

		return nil
	}, TypeGet)
}

// WithSerializable allows a Get operation to be served by any member without a quorum read.
func WithSerializable() Option {
	return newOption("WithSerializable", func(s *settings) error {
		s.serializable = true

		return nil
	}, TypeGet)
}
