package tx

import (
	"slices"

	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
)

// Descriptor is the frozen content of a committed transaction: the predicates
// that must all hold and the operations of both branches, in the order they
// were added. Exactly one branch is executed by the store.
type Descriptor struct {
	predicates []predicate.Predicate
	thenOps    []operation.Operation
	elseOps    []operation.Operation
}

// NewDescriptor freezes predicates and branches into a Descriptor.
// The slices are copied, so later changes to them do not affect the Descriptor.
func NewDescriptor(
	predicates []predicate.Predicate,
	thenOps []operation.Operation,
	elseOps []operation.Operation,
) Descriptor {
	return Descriptor{
		predicates: slices.Clone(predicates),
		thenOps:    slices.Clone(thenOps),
		elseOps:    slices.Clone(elseOps),
	}
}

// Predicates returns the predicates of the transaction.
func (d Descriptor) Predicates() []predicate.Predicate {
	return slices.Clone(d.predicates)
}

// Then returns the operations executed when all predicates hold.
func (d Descriptor) Then() []operation.Operation {
	return slices.Clone(d.thenOps)
}

// Else returns the operations executed when any predicate fails.
func (d Descriptor) Else() []operation.Operation {
	return slices.Clone(d.elseOps)
}

// Branch returns the operations executed for the given outcome of the predicates.
func (d Descriptor) Branch(succeeded bool) []operation.Operation {
	if succeeded {
		return d.Then()
	}

	return d.Else()
}

// IsEmpty reports whether the transaction has neither predicates nor operations.
func (d Descriptor) IsEmpty() bool {
	return len(d.predicates) == 0 && len(d.thenOps) == 0 && len(d.elseOps) == 0
}

// IsReadOnly reports whether no operation of either branch modifies the store.
func (d Descriptor) IsReadOnly() bool {
	isWrite := func(op operation.Operation) bool { return op.Type().IsWrite() }

	return !slices.ContainsFunc(d.thenOps, isWrite) && !slices.ContainsFunc(d.elseOps, isWrite)
}
