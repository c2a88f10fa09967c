package jetcd_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Dataman-Cloud/jetcd"
	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/executor/memory"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
	"github.com/Dataman-Cloud/jetcd/tx"
)

const defaultWaitTimeout = 5 * time.Second

type executorMock struct {
	mock.Mock
}

func (m *executorMock) Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error) {
	args := m.Called(ctx, desc)

	resp, _ := args.Get(0).(tx.Response)

	return resp, args.Error(1)
}

func waitResult(t *testing.T, fut *tx.Future) (tx.Response, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), defaultWaitTimeout)
	defer cancel()

	return fut.GetContext(ctx)
}

func requirePanicsWith(t *testing.T, target error, fn func()) {
	t.Helper()

	defer func() {
		t.Helper()

		r := recover()
		require.NotNil(t, r, "function must panic")

		err, ok := r.(error)
		require.True(t, ok, "panic value must be an error, got %T", r)
		require.ErrorIs(t, err, target)
	}()

	fn()
}

func TestClient_Txn_ReturnsSameBuilder(t *testing.T) {
	t.Parallel()

	client := jetcd.NewClient(new(executorMock))
	txn := client.Txn(context.Background())

	assert.Same(t, txn, txn.If())
	assert.Same(t, txn, txn.If(predicate.ValueEqual([]byte("key1"), []byte("value1"))))
	assert.Same(t, txn, txn.Then(operation.Put([]byte("key1"), []byte("value1"))))
	assert.Same(t, txn, txn.Else(operation.Delete([]byte("key2"))))
}

func TestTxn_AppendsInCallOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	p1 := predicate.ValueEqual([]byte("a"), []byte("1"))
	p2 := predicate.VersionGreater([]byte("b"), 0)
	p3 := predicate.LeaseEqual([]byte("c"), 0)

	t1 := operation.Put([]byte("a"), []byte("2"))
	t2 := operation.Get([]byte("b"))
	t3 := operation.Delete([]byte("c"))
	e1 := operation.Get([]byte("a"))
	e2 := operation.Get([]byte("z"))

	expected := tx.NewDescriptor(
		[]predicate.Predicate{p1, p2, p3},
		[]operation.Operation{t1, t2, t3},
		[]operation.Operation{e1, e2},
	)

	exec := new(executorMock)
	exec.On("Execute", mock.Anything, expected).Return(tx.Response{
		Succeeded: false,
		Revision:  1,
		Results: []tx.RequestResponse{
			{Type: operation.TypeGet},
			{Type: operation.TypeGet},
		},
	}, nil).Once()

	fut, err := jetcd.NewClient(exec).Txn(ctx).
		If(p1).
		Then(t1).
		Else(e1).
		If(p2, p3).
		Then(t2, t3).
		Else(e2).
		Commit()
	require.NoError(t, err)

	resp, err := waitResult(t, fut)
	require.NoError(t, err)
	assert.False(t, resp.Succeeded)
	assert.Len(t, resp.Results, 2)

	exec.AssertExpectations(t)
}

func TestTxn_BranchesAreIndependent(t *testing.T) {
	t.Parallel()

	var captured tx.Descriptor

	exec := new(executorMock)
	exec.On("Execute", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured, _ = args.Get(1).(tx.Descriptor)
		}).
		Return(tx.Response{Succeeded: true, Results: []tx.RequestResponse{}}, nil)

	fut, err := jetcd.NewClient(exec).Txn(context.Background()).
		Else(operation.Get([]byte("x"))).
		Commit()
	require.NoError(t, err)

	_, err = waitResult(t, fut)
	require.NoError(t, err)

	assert.Empty(t, captured.Predicates())
	assert.Empty(t, captured.Then())
	assert.Len(t, captured.Else(), 1)
}

func TestTxn_CommitTwice(t *testing.T) {
	t.Parallel()

	exec := new(executorMock)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(tx.Response{Succeeded: true, Revision: 1, Results: []tx.RequestResponse{}}, nil).
		Once()

	txn := jetcd.NewClient(exec).Txn(context.Background())

	first, err := txn.Commit()
	require.NoError(t, err)

	second, err := txn.Commit()
	require.ErrorIs(t, err, errdefs.ErrIllegalState)
	assert.Nil(t, second)

	resp, err := waitResult(t, first)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)

	exec.AssertExpectations(t)
}

func TestTxn_MutationAfterCommitPanics(t *testing.T) {
	t.Parallel()

	exec := new(executorMock)
	exec.On("Execute", mock.Anything, mock.Anything).
		Return(tx.Response{Succeeded: true, Results: []tx.RequestResponse{}}, nil)

	txn := jetcd.NewClient(exec).Txn(context.Background())

	fut, err := txn.Commit()
	require.NoError(t, err)

	_, err = waitResult(t, fut)
	require.NoError(t, err)

	requirePanicsWith(t, errdefs.ErrIllegalState, func() { txn.If(predicate.VersionEqual([]byte("k"), 0)) })
	requirePanicsWith(t, errdefs.ErrIllegalState, func() { txn.Then(operation.Get([]byte("k"))) })
	requirePanicsWith(t, errdefs.ErrIllegalState, func() { txn.Else(operation.Get([]byte("k"))) })
}

func TestTxn_InvalidArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(tx.Txn) tx.Txn
	}{
		{"nil predicate", func(txn tx.Txn) tx.Txn {
			return txn.If(predicate.VersionEqual([]byte("k"), 0), nil)
		}},
		{"zero then operation", func(txn tx.Txn) tx.Txn { return txn.Then(operation.Operation{}) }},
		{"zero else operation", func(txn tx.Txn) tx.Txn {
			return txn.Else(operation.Get([]byte("k")), operation.Operation{})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exec := new(executorMock)
			exec.On("Execute", mock.Anything, mock.Anything).Return(tx.Response{
				Succeeded: true,
				Results:   []tx.RequestResponse{},
			}, nil)

			txn := jetcd.NewClient(exec).Txn(context.Background())

			requirePanicsWith(t, errdefs.ErrInvalidArgument, func() { tt.build(txn) })

			// The rejected call leaves nothing behind.
			fut, err := txn.Commit()
			require.NoError(t, err)

			_, err = waitResult(t, fut)
			require.NoError(t, err)

			exec.AssertCalled(t, "Execute", mock.Anything, tx.NewDescriptor(nil, nil, nil))
		})
	}
}

func TestTxn_ExecutorFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("etcdserver: request timed out")

	exec := new(executorMock)
	exec.On("Execute", mock.Anything, mock.Anything).Return(tx.Response{}, cause)

	core, logs := observer.New(zapcore.DebugLevel)

	fut, err := jetcd.NewClient(exec, jetcd.WithLogger(zap.New(core)), jetcd.WithIDGenerator(func() string {
		return "txn-1"
	})).Txn(context.Background()).Commit()
	require.NoError(t, err, "commit must not report round-trip failures")

	_, err = waitResult(t, fut)
	require.ErrorIs(t, err, errdefs.ErrTransactionFailed)
	require.ErrorIs(t, err, cause)

	failed := logs.FilterMessage("transaction failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "txn-1", failed[0].ContextMap()["txn_id"])
}

func TestTxn_ResultCountMismatch(t *testing.T) {
	t.Parallel()

	exec := new(executorMock)
	exec.On("Execute", mock.Anything, mock.Anything).Return(tx.Response{Succeeded: true}, nil)

	fut, err := jetcd.NewClient(exec).Txn(context.Background()).
		Then(operation.Get([]byte("k"))).
		Commit()
	require.NoError(t, err)

	_, err = waitResult(t, fut)
	require.ErrorIs(t, err, errdefs.ErrTransactionFailed)
}

func TestTxn_FailureBranchWithoutPredicates(t *testing.T) {
	t.Parallel()

	exec := executor.Func(func(context.Context, tx.Descriptor) (tx.Response, error) {
		return tx.Response{Succeeded: false, Revision: 3, Results: nil}, nil
	})

	client := jetcd.NewClient(exec)

	fut, err := client.Txn(context.Background()).Else(operation.Get([]byte("k"))).Commit()
	require.NoError(t, err)

	_, err = waitResult(t, fut)
	require.ErrorIs(t, err, errdefs.ErrTransactionFailed)

	_, err = client.Do(context.Background(), operation.Get([]byte("k")))
	require.ErrorIs(t, err, errdefs.ErrTransactionFailed)

	fut, err = client.Txn(context.Background()).Commit()
	require.NoError(t, err)

	_, err = waitResult(t, fut)
	require.ErrorIs(t, err, errdefs.ErrTransactionFailed, "an empty transaction cannot take the failure branch")
}

func TestTxn_CommitDoesNotBlock(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	exec := new(executorMock)
	exec.On("Execute", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(tx.Response{Succeeded: true, Results: []tx.RequestResponse{}}, nil)

	fut, err := jetcd.NewClient(exec).Txn(context.Background()).Commit()
	require.NoError(t, err)

	select {
	case <-fut.Done():
		t.Fatal("future completed before the executor returned")
	default:
	}

	close(release)

	resp, err := waitResult(t, fut)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)
}

func TestTxn_EmptyCommit(t *testing.T) {
	t.Parallel()

	fut, err := jetcd.NewClient(memory.New()).Txn(context.Background()).Commit()
	require.NoError(t, err)

	resp, err := waitResult(t, fut)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)
	assert.Empty(t, resp.Results)
}

func TestTxn_ConditionalScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := jetcd.NewClient(memory.New())

	_, err := client.Put(ctx, []byte("k"), []byte("v1"))
	require.NoError(t, err)

	fut, err := client.Txn(ctx).
		If(predicate.ValueGreater([]byte("k"), []byte("v0"))).
		Then(operation.Put([]byte("k2"), []byte("v2"))).
		Else(operation.Put([]byte("k4"), []byte("v4"))).
		Commit()
	require.NoError(t, err)

	resp, err := waitResult(t, fut)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)
	require.Len(t, resp.Results, 1)

	values, err := client.Get(ctx, []byte("k2"))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, []byte("v2"), values[0].Value)

	values, err = client.Get(ctx, []byte("k4"))
	require.NoError(t, err)
	assert.Empty(t, values)

	fut, err = client.Txn(ctx).
		If(predicate.ValueEqual([]byte("k"), []byte("v0"))).
		Then(operation.Put([]byte("k2"), []byte("other"))).
		Else(operation.Get([]byte("k"))).
		Commit()
	require.NoError(t, err)

	resp, err = waitResult(t, fut)
	require.NoError(t, err)
	assert.False(t, resp.Succeeded)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, []byte("v1"), resp.Results[0].Values[0].Value)
}

func TestClient_SingleOperations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := jetcd.NewClient(memory.New())

	resp, err := client.Put(ctx, []byte("/app/a"), []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, operation.TypePut, resp.Type)

	resp, err = client.Put(ctx, []byte("/app/a"), []byte("2"), operation.WithPrevKV())
	require.NoError(t, err)
	require.Len(t, resp.PrevValues, 1)
	assert.Equal(t, []byte("1"), resp.PrevValues[0].Value)

	_, err = client.Put(ctx, []byte("/app/b"), []byte("3"))
	require.NoError(t, err)

	values, err := client.Get(ctx, []byte("/app/"), operation.WithPrefix())
	require.NoError(t, err)
	assert.Len(t, values, 2)

	resp, err = client.Delete(ctx, []byte("/app/"), operation.WithPrefix())
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Deleted)

	_, err = client.Get(ctx, []byte("k"), operation.WithLease(1))
	require.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = client.Do(ctx, operation.Operation{})
	require.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestNewClient_NilExecutor(t *testing.T) {
	t.Parallel()

	requirePanicsWith(t, errdefs.ErrInvalidArgument, func() { jetcd.NewClient(nil) })
}
