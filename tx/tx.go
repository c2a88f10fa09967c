// Package tx provides transactional interfaces for atomic storage operations.
// It supports conditional execution with predicates for complex transaction logic.
package tx

import (
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
)

// Txn represents a transactional interface for atomic operations.
// Transactions support conditional execution with predicates.
//
// Every call appends to what previous calls accumulated: several If calls AND
// their predicates together, several Then (Else) calls concatenate operations in
// call order. A Txn is owned by a single goroutine until it is committed.
type Txn interface {
	// If appends predicates for conditional transaction execution.
	// No predicates at all means always true (unconditional execution).
	// It panics with an errdefs.ErrInvalidArgument error on a nil predicate and
	// with an errdefs.ErrIllegalState error after Commit.
	If(predicates ...predicate.Predicate) Txn
	// Then appends operations to execute if all predicates evaluate to true.
	// It panics with an errdefs.ErrInvalidArgument error on a zero Operation and
	// with an errdefs.ErrIllegalState error after Commit.
	Then(operations ...operation.Operation) Txn
	// Else appends operations to execute if any predicate evaluates to false.
	// It panics like Then.
	Else(operations ...operation.Operation) Txn
	// Commit freezes the transaction and submits it without waiting for the result.
	// Calling it a second time returns an errdefs.ErrIllegalState error.
	Commit() (*Future, error)
}
