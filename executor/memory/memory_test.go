package memory_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/executor/memory"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
	"github.com/Dataman-Cloud/jetcd/tx"
)

func execute(ctx context.Context, t *testing.T, exec *memory.Executor, preds []predicate.Predicate,
	thenOps, elseOps []operation.Operation,
) tx.Response {
	t.Helper()

	resp, err := exec.Execute(ctx, tx.NewDescriptor(preds, thenOps, elseOps))
	require.NoError(t, err)

	return resp
}

func TestExecutor_PutGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exec := memory.New()

	key := []byte("/test/put")
	value := []byte("put-test-value")

	resp := execute(ctx, t, exec, nil, []operation.Operation{operation.Put(key, value)}, nil)
	assert.True(t, resp.Succeeded)
	require.Len(t, resp.Results, 1, "TX should return one result")
	assert.Empty(t, resp.Results[0].Values, "Put operation should not return any values in response")
	assert.Equal(t, 1, exec.Len())

	resp = execute(ctx, t, exec, nil, []operation.Operation{operation.Get(key)}, nil)
	require.Len(t, resp.Results[0].Values, 1)
	assert.Equal(t, value, resp.Results[0].Values[0].Value)

	resp = execute(ctx, t, exec, nil, []operation.Operation{operation.Delete(key)}, nil)
	assert.Equal(t, int64(1), resp.Results[0].Deleted)
	assert.Zero(t, exec.Len())
}

func TestExecutor_RangeOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exec := memory.New()

	for _, key := range []string{"/b", "/a/2", "/a/10", "/a/1", "/"} {
		execute(ctx, t, exec, nil, []operation.Operation{operation.Put([]byte(key), []byte("x"))}, nil)
	}

	resp := execute(ctx, t, exec, nil, []operation.Operation{
		operation.Get([]byte("/a/"), operation.WithPrefix()),
		operation.Get([]byte("/a/10"), operation.WithFromKey()),
	}, nil)

	var prefixed, fromKey []string
	for _, item := range resp.Results[0].Values {
		prefixed = append(prefixed, string(item.Key))
	}

	for _, item := range resp.Results[1].Values {
		fromKey = append(fromKey, string(item.Key))
	}

	assert.Equal(t, []string{"/a/1", "/a/10", "/a/2"}, prefixed)
	assert.Equal(t, []string{"/a/10", "/a/2", "/b"}, fromKey)
}

func TestExecutor_RangeBounds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exec := memory.New()

	for _, key := range []string{"a", "c", "e", "g"} {
		execute(ctx, t, exec, nil, []operation.Operation{operation.Put([]byte(key), []byte("x"))}, nil)
	}

	keys := func(result tx.RequestResponse) []string {
		out := make([]string, 0, len(result.Values))
		for _, item := range result.Values {
			out = append(out, string(item.Key))
		}

		return out
	}

	tests := []struct {
		name     string
		op       operation.Operation
		expected []string
	}{
		{"start between keys", operation.Get([]byte("b"), operation.WithRange([]byte("f"))), []string{"c", "e"}},
		{"start on a key", operation.Get([]byte("c"), operation.WithRange([]byte("e"))), []string{"c"}},
		{"start after last key", operation.Get([]byte("h"), operation.WithFromKey()), []string{}},
		{"empty window", operation.Get([]byte("d"), operation.WithRange([]byte("e"))), []string{}},
		{"from first key", operation.Get([]byte("a"), operation.WithFromKey()), []string{"a", "c", "e", "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := execute(ctx, t, exec, nil, []operation.Operation{tt.op}, nil)
			assert.Equal(t, tt.expected, keys(resp.Results[0]))
		})
	}

	resp := execute(ctx, t, exec,
		[]predicate.Predicate{predicate.ValueEqual([]byte("b"), []byte("x"), predicate.WithRange([]byte("f")))},
		nil, nil)
	assert.True(t, resp.Succeeded, "compare over a range must only see keys inside it")
}

func TestExecutor_Errors(t *testing.T) {
	t.Parallel()

	exec := memory.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, tx.NewDescriptor(nil, nil, nil))
	require.ErrorIs(t, err, context.Canceled)

	_, err = exec.Execute(context.Background(), tx.NewDescriptor(nil,
		[]operation.Operation{operation.Get([]byte("k"), operation.WithRevision(5))}, nil))
	require.Error(t, err)
	assert.False(t, errdefs.IsInvalidArgument(err))
}

// TestExecutor_ConcurrentCompareAndSwap increments a counter from many goroutines
// with optimistic transactions; no increment may be lost.
func TestExecutor_ConcurrentCompareAndSwap(t *testing.T) {
	t.Parallel()

	const (
		workers    = 8
		increments = 25
	)

	ctx := context.Background()
	exec := memory.New()
	key := []byte("counter")

	execute(ctx, t, exec, nil, []operation.Operation{operation.Put(key, []byte("0"))}, nil)

	var group errgroup.Group

	for range workers {
		group.Go(func() error {
			for range increments {
				for {
					resp, err := exec.Execute(ctx, tx.NewDescriptor(nil,
						[]operation.Operation{operation.Get(key)}, nil))
					if err != nil {
						return err
					}

					current := resp.Results[0].Values[0]

					n, err := strconv.Atoi(string(current.Value))
					if err != nil {
						return err
					}

					resp, err = exec.Execute(ctx, tx.NewDescriptor(
						[]predicate.Predicate{predicate.ModRevisionEqual(key, current.ModRevision)},
						[]operation.Operation{operation.Put(key, []byte(strconv.Itoa(n+1)))},
						nil,
					))
					if err != nil {
						return err
					}

					if resp.Succeeded {
						break
					}
				}
			}

			return nil
		})
	}

	require.NoError(t, group.Wait())

	resp := execute(ctx, t, exec, nil, []operation.Operation{operation.Get(key)}, nil)
	assert.Equal(t, strconv.Itoa(workers*increments), string(resp.Results[0].Values[0].Value))
	assert.Equal(t, int64(workers*increments+1), resp.Results[0].Values[0].Version)
}
