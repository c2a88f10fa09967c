// Package executor defines how a committed transaction reaches a store.
// It provides a common interface for different storage backends like etcd,
// Tarantool, bbolt and an in-memory store.
package executor

import (
	"context"

	"github.com/Dataman-Cloud/jetcd/tx"
)

// Executor performs the store round trip of a committed transaction.
//
// Execute evaluates all predicates of desc atomically against one snapshot of the
// store, applies the operations of exactly one branch and reports which branch
// ran. Implementations must be safe for concurrent use: every Commit calls
// Execute on its own goroutine.
type Executor interface {
	Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error)
}

// Func adapts an ordinary function to the Executor interface.
type Func func(ctx context.Context, desc tx.Descriptor) (tx.Response, error)

// Execute calls f(ctx, desc).
func (f Func) Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error) {
	return f(ctx, desc)
}
