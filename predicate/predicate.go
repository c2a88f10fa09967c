// Package predicate provides types and interfaces for conditional operations.
// It defines predicate logic used in transactional conditional execution.
//
// A predicate compares one aspect of the stored state of a key (or of every key in
// a range) with a target value. All predicates of a transaction are ANDed together.
package predicate

import (
	"slices"

	"github.com/tarantool/go-option"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/internal/options"
	"github.com/Dataman-Cloud/jetcd/kv"
)

// Predicate represents a condition used for conditional operations.
// Predicates are used in transactions to specify conditions for execution.
// A Predicate is immutable: accessors return copies of the underlying data.
type Predicate interface {
	// Key returns the key that this predicate applies to.
	Key() []byte
	// RangeEnd returns the end of the compared range [Key, RangeEnd),
	// or nil when the predicate applies to the single key.
	RangeEnd() []byte
	// Operation returns the comparison operation (Equal, NotEqual, Greater, Less).
	Operation() Op
	// Target returns what aspect of the key to compare.
	Target() Target
	// Value returns the comparison value for the predicate:
	// []byte for TargetValue and int64 for every other target.
	Value() any
}

type rangeOptions struct {
	end    option.Generic[[]byte]
	prefix bool
}

// Option configures the keys a predicate applies to.
type Option = options.OptionCallback[rangeOptions]

// WithRange makes the predicate apply to every key in [key, end).
func WithRange(end []byte) Option {
	return func(opts *rangeOptions) {
		opts.end = option.Some(slices.Clone(end))
		opts.prefix = false
	}
}

// WithPrefix makes the predicate apply to every key that starts with the predicate key.
func WithPrefix() Option {
	return func(opts *rangeOptions) {
		opts.end = option.None[[]byte]()
		opts.prefix = true
	}
}

type predicate struct {
	key      []byte
	rangeEnd []byte
	op       Op
	target   Target
	value    any
}

var _ Predicate = predicate{} //nolint:exhaustruct

// New creates a predicate comparing target of key with value using op.
//
// TargetValue accepts a []byte or a string. Every other target accepts any Go
// integer type, stored as int64. An empty key, an unknown operation or target and
// a value of the wrong type are reported as errdefs.ErrInvalidArgument.
func New(key []byte, op Op, target Target, value any, opts ...Option) (Predicate, error) {
	switch {
	case len(key) == 0:
		return nil, errdefs.InvalidArgument("predicate key is empty")
	case !op.Valid():
		return nil, errdefs.InvalidArgument("unknown predicate operation %d", int(op))
	case !target.Valid():
		return nil, errdefs.InvalidArgument("unknown predicate target %d", int(target))
	}

	normalized, err := normalizeValue(target, value)
	if err != nil {
		return nil, err
	}

	ropts := options.ApplyOptions[rangeOptions](nil, opts)

	var rangeEnd []byte

	if ropts.prefix {
		rangeEnd = kv.PrefixEnd(key)
	} else if end, ok := ropts.end.Get(); ok {
		switch {
		case len(end) == 0:
			return nil, errdefs.InvalidArgument("predicate range end is empty")
		case !kv.IsUnboundedEnd(end) && slices.Compare(end, key) <= 0:
			return nil, errdefs.InvalidArgument("predicate range end %q is not after key %q", end, key)
		default:
			rangeEnd = end
		}
	}

	return predicate{
		key:      slices.Clone(key),
		rangeEnd: rangeEnd,
		op:       op,
		target:   target,
		value:    normalized,
	}, nil
}

// Must returns p or panics if err is not nil. It simplifies building predicates
// from values known to be valid.
func Must(p Predicate, err error) Predicate {
	if err != nil {
		panic(err)
	}

	return p
}

func normalizeValue(target Target, value any) (any, error) {
	if target == TargetValue {
		switch v := value.(type) {
		case []byte:
			return slices.Clone(v), nil
		case string:
			return []byte(v), nil
		default:
			return nil, errdefs.InvalidArgument("%s predicate requires []byte value, got %T", target, value)
		}
	}

	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	default:
		return nil, errdefs.InvalidArgument("%s predicate requires int64 value, got %T", target, value)
	}
}

func (p predicate) Key() []byte {
	return slices.Clone(p.key)
}

func (p predicate) RangeEnd() []byte {
	return slices.Clone(p.rangeEnd)
}

func (p predicate) Operation() Op {
	return p.op
}

func (p predicate) Target() Target {
	return p.target
}

func (p predicate) Value() any {
	if b, ok := p.value.([]byte); ok {
		return slices.Clone(b)
	}

	return p.value
}

func valuePredicate(key []byte, op Op, value []byte, opts []Option) Predicate {
	return Must(New(key, op, TargetValue, value, opts...))
}

func numericPredicate(key []byte, op Op, target Target, value int64, opts []Option) Predicate {
	return Must(New(key, op, target, value, opts...))
}

// ValueEqual creates a predicate that checks if the value of key equals value.
// It panics if key is empty.
func ValueEqual(key []byte, value []byte, opts ...Option) Predicate {
	return valuePredicate(key, OpEqual, value, opts)
}

// ValueNotEqual creates a predicate that checks if the value of key differs from value.
// It panics if key is empty.
func ValueNotEqual(key []byte, value []byte, opts ...Option) Predicate {
	return valuePredicate(key, OpNotEqual, value, opts)
}

// ValueGreater creates a predicate that checks if the value of key is lexically greater than value.
// It panics if key is empty.
func ValueGreater(key []byte, value []byte, opts ...Option) Predicate {
	return valuePredicate(key, OpGreater, value, opts)
}

// ValueLess creates a predicate that checks if the value of key is lexically less than value.
// It panics if key is empty.
func ValueLess(key []byte, value []byte, opts ...Option) Predicate {
	return valuePredicate(key, OpLess, value, opts)
}

// VersionEqual creates a predicate that checks if the version of key equals version.
// Version 0 matches a key that does not exist.
func VersionEqual(key []byte, version int64, opts ...Option) Predicate {
	return numericPredicate(key, OpEqual, TargetVersion, version, opts)
}

// VersionNotEqual creates a predicate that checks if the version of key differs from version.
func VersionNotEqual(key []byte, version int64, opts ...Option) Predicate {
	return numericPredicate(key, OpNotEqual, TargetVersion, version, opts)
}

// VersionGreater creates a predicate that checks if the version of key is greater than version.
func VersionGreater(key []byte, version int64, opts ...Option) Predicate {
	return numericPredicate(key, OpGreater, TargetVersion, version, opts)
}

// VersionLess creates a predicate that checks if the version of key is less than version.
func VersionLess(key []byte, version int64, opts ...Option) Predicate {
	return numericPredicate(key, OpLess, TargetVersion, version, opts)
}

// CreateRevisionEqual creates a predicate on the creation revision of key.
func CreateRevisionEqual(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpEqual, TargetCreateRevision, revision, opts)
}

// CreateRevisionNotEqual creates a predicate on the creation revision of key.
func CreateRevisionNotEqual(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpNotEqual, TargetCreateRevision, revision, opts)
}

// CreateRevisionGreater creates a predicate on the creation revision of key.
func CreateRevisionGreater(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpGreater, TargetCreateRevision, revision, opts)
}

// CreateRevisionLess creates a predicate on the creation revision of key.
func CreateRevisionLess(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpLess, TargetCreateRevision, revision, opts)
}

// ModRevisionEqual creates a predicate on the last modification revision of key.
func ModRevisionEqual(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpEqual, TargetModRevision, revision, opts)
}

// ModRevisionNotEqual creates a predicate on the last modification revision of key.
func ModRevisionNotEqual(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpNotEqual, TargetModRevision, revision, opts)
}

// ModRevisionGreater creates a predicate on the last modification revision of key.
func ModRevisionGreater(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpGreater, TargetModRevision, revision, opts)
}

// ModRevisionLess creates a predicate on the last modification revision of key.
func ModRevisionLess(key []byte, revision int64, opts ...Option) Predicate {
	return numericPredicate(key, OpLess, TargetModRevision, revision, opts)
}

// LeaseEqual creates a predicate on the lease attached to key. Lease 0 means no lease.
func LeaseEqual(key []byte, lease int64, opts ...Option) Predicate {
	return numericPredicate(key, OpEqual, TargetLease, lease, opts)
}

// LeaseNotEqual creates a predicate on the lease attached to key.
func LeaseNotEqual(key []byte, lease int64, opts ...Option) Predicate {
	return numericPredicate(key, OpNotEqual, TargetLease, lease, opts)
}

// LeaseGreater creates a predicate on the lease attached to key.
func LeaseGreater(key []byte, lease int64, opts ...Option) Predicate {
	return numericPredicate(key, OpGreater, TargetLease, lease, opts)
}

// LeaseLess creates a predicate on the lease attached to key.
func LeaseLess(key []byte, lease int64, opts ...Option) Predicate {
	return numericPredicate(key, OpLess, TargetLease, lease, opts)
}
