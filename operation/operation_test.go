package operation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/operation"
)

func TestGet(t *testing.T) {
	t.Parallel()

	key := []byte("test-key")
	op := operation.Get(key)

	assert.Equal(t, operation.TypeGet, op.Type())
	assert.Equal(t, key, op.Key())
	assert.Nil(t, op.Value())
	assert.False(t, op.IsRange())
	assert.Zero(t, op.Limit())
}

func TestGetWithOptions(t *testing.T) {
	t.Parallel()

	op := operation.Get([]byte("a"),
		operation.WithRange([]byte("c")),
		operation.WithLimit(10),
		operation.WithSort(operation.SortByModRevision, operation.SortDescend),
		operation.WithRevision(5),
		operation.WithKeysOnly(),
		operation.WithSerializable(),
	)

	assert.Equal(t, []byte("c"), op.RangeEnd())
	assert.True(t, op.IsRange())
	assert.False(t, op.IsPrefix())
	assert.Equal(t, int64(10), op.Limit())

	target, order := op.Sort()
	assert.Equal(t, operation.SortByModRevision, target)
	assert.Equal(t, operation.SortDescend, order)

	assert.Equal(t, int64(5), op.Revision())
	assert.True(t, op.KeysOnly())
	assert.False(t, op.CountOnly())
	assert.True(t, op.Serializable())
}

func TestPut(t *testing.T) {
	t.Parallel()

	key := []byte("test-key")
	value := []byte("test-value")
	op := operation.Put(key, value)

	assert.Equal(t, operation.TypePut, op.Type())
	assert.Equal(t, key, op.Key())
	assert.Equal(t, value, op.Value())

	_, hasLease := op.Lease()
	assert.False(t, hasLease)
	assert.False(t, op.PrevKV())
}

func TestPutWithOptions(t *testing.T) {
	t.Parallel()

	op := operation.Put([]byte("k"), nil, operation.WithLease(42), operation.WithPrevKV())

	assert.Equal(t, []byte{}, op.Value())

	lease, ok := op.Lease()
	require.True(t, ok)
	assert.Equal(t, int64(42), lease)
	assert.True(t, op.PrevKV())
}

func TestDelete(t *testing.T) {
	t.Parallel()

	key := []byte("test-key")
	op := operation.Delete(key)

	assert.Equal(t, operation.TypeDelete, op.Type())
	assert.Equal(t, key, op.Key())
	assert.Nil(t, op.Value())
	assert.False(t, op.PrevKV())
}

func TestDeleteWithOptions(t *testing.T) {
	t.Parallel()

	op := operation.Delete([]byte("/app/"), operation.WithPrefix(), operation.WithPrevKV())

	assert.True(t, op.IsPrefix())
	assert.True(t, op.IsRange())
	assert.Equal(t, []byte("/app0"), op.RangeEnd())
	assert.True(t, op.PrevKV())
}

func TestFromKey(t *testing.T) {
	t.Parallel()

	op := operation.Get(nil, operation.WithFromKey())

	assert.Empty(t, op.Key())
	assert.True(t, kv.IsUnboundedEnd(op.RangeEnd()))
}

func TestNew_InvalidArgument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		typ   operation.Type
		key   []byte
		value []byte
		opts  []operation.Option
	}{
		{"unknown type", operation.Type(42), []byte("k"), nil, nil},
		{"get with value", operation.TypeGet, []byte("k"), []byte("v"), nil},
		{"delete with value", operation.TypeDelete, []byte("k"), []byte("v"), nil},
		{"empty put key", operation.TypePut, nil, []byte("v"), nil},
		{"empty get key", operation.TypeGet, []byte{}, nil, nil},
		{"sort on put", operation.TypePut, []byte("k"), []byte("v"),
			[]operation.Option{operation.WithSort(operation.SortByKey, operation.SortAscend)}},
		{"limit on delete", operation.TypeDelete, []byte("k"), nil,
			[]operation.Option{operation.WithLimit(1)}},
		{"lease on get", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithLease(1)}},
		{"prev kv on get", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithPrevKV()}},
		{"range on put", operation.TypePut, []byte("k"), []byte("v"),
			[]operation.Option{operation.WithRange([]byte("z"))}},
		{"keys only on delete", operation.TypeDelete, []byte("k"), nil,
			[]operation.Option{operation.WithKeysOnly()}},
		{"range and prefix", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithRange([]byte("z")), operation.WithPrefix()}},
		{"prefix and from key", operation.TypeDelete, []byte("k"), nil,
			[]operation.Option{operation.WithPrefix(), operation.WithFromKey()}},
		{"range end before key", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithRange([]byte("a"))}},
		{"empty range end", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithRange(nil)}},
		{"negative limit", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithLimit(-1)}},
		{"negative revision", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithRevision(-1)}},
		{"zero lease", operation.TypePut, []byte("k"), []byte("v"),
			[]operation.Option{operation.WithLease(0)}},
		{"unknown sort target", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithSort(operation.SortTarget(42), operation.SortAscend)}},
		{"unknown sort order", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithSort(operation.SortByKey, operation.SortOrder(42))}},
		{"keys only and count only", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{operation.WithKeysOnly(), operation.WithCountOnly()}},
		{"zero option", operation.TypeGet, []byte("k"), nil,
			[]operation.Option{{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := operation.New(tt.typ, tt.key, tt.value, tt.opts...)
			require.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}
}

func TestMustVariants_Panic(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { operation.Get(nil) })
	assert.Panics(t, func() { operation.Put([]byte("k"), []byte("v"), operation.WithLimit(1)) })
	assert.Panics(t, func() { operation.Delete([]byte("k"), operation.WithLease(3)) })
}

func TestOption_Supports(t *testing.T) {
	t.Parallel()

	assert.True(t, operation.WithPrevKV().Supports(operation.TypePut))
	assert.True(t, operation.WithPrevKV().Supports(operation.TypeDelete))
	assert.False(t, operation.WithPrevKV().Supports(operation.TypeGet))
	assert.Equal(t, "WithPrevKV", operation.WithPrevKV().Name())
}

func TestOperation_Immutable(t *testing.T) {
	t.Parallel()

	key := []byte("key")
	value := []byte("value")

	op := operation.Put(key, value)

	key[0] = 'K'
	value[0] = 'V'

	assert.Equal(t, []byte("key"), op.Key())
	assert.Equal(t, []byte("value"), op.Value())

	op.Key()[0] = 'X'
	op.Value()[0] = 'X'

	assert.Equal(t, []byte("key"), op.Key())
	assert.Equal(t, []byte("value"), op.Value())
}

func TestOperation_IsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, operation.Operation{}.IsZero())
	assert.False(t, operation.Get([]byte("k")).IsZero())
	assert.False(t, operation.Get(nil, operation.WithFromKey()).IsZero())
}
