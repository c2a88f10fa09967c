// Package jetcd builds conditional multi-operation transactions for etcd-style
// key-value stores and submits them without blocking the caller.
//
// A transaction is a set of predicates and two lists of operations:
//
//	fut, err := client.Txn(ctx).
//		If(predicate.ValueGreater([]byte("k"), []byte("v0"))).
//		Then(operation.Put([]byte("k2"), []byte("v2"))).
//		Else(operation.Put([]byte("k4"), []byte("v4"))).
//		Commit()
//
// The store evaluates every predicate against one snapshot; when all of them
// hold it applies the Then operations, otherwise the Else operations, and
// reports which branch ran through the returned [tx.Future].
//
// Stores are reached through the [executor.Executor] interface. The executor
// subpackages provide etcd, Tarantool, bbolt and in-memory implementations.
package jetcd
