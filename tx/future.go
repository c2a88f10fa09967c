package tx

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/Dataman-Cloud/jetcd/errdefs"
)

// Future is a single-shot handle to the result of a committed transaction.
// It completes exactly once, with either a Response or an error that wraps
// errdefs.ErrTransactionFailed. Its methods are safe for concurrent use.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc
	resp   Response
	err    error
}

// NewFuture runs fn on its own goroutine and returns a Future completed with its result.
// The context passed to fn is derived from ctx and is canceled by Future.Cancel.
func NewFuture(ctx context.Context, fn func(ctx context.Context) (Response, error)) *Future {
	runCtx, cancel := context.WithCancel(ctx)

	fut := &Future{
		done:   make(chan struct{}),
		cancel: cancel,
		resp:   Response{},
		err:    nil,
	}

	go func() {
		defer close(fut.done)
		defer cancel()

		fut.resp, fut.err = run(runCtx, fn)
		if fut.err != nil {
			fut.resp = Response{}
			fut.err = errdefs.TransactionFailed(fut.err)
		}
	}()

	return fut
}

func run(ctx context.Context, fn func(ctx context.Context) (Response, error)) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("executor panicked: %v", r)
		}
	}()

	return fn(ctx)
}

// Done returns a channel that is closed when the transaction completes.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Get waits for the transaction to complete and returns its result.
func (f *Future) Get() (Response, error) {
	<-f.done

	return f.resp, f.err
}

// GetContext waits for the transaction to complete or for ctx to be done.
// Giving up waiting does not cancel the transaction itself; use Cancel for that.
func (f *Future) GetContext(ctx context.Context) (Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return Response{}, errors.Wrap(ctx.Err(), "waiting for transaction result")
	}
}

// Cancel asks the executor to abandon the round trip. Whether the store applied
// the transaction is decided by the store; a canceled Future still completes.
func (f *Future) Cancel() {
	f.cancel()
}
