package jetcd

import (
	"context"

	"go.uber.org/zap"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// txn is the internal implementation of the tx.Txn interface.
type txn struct {
	client *client
	ctx    context.Context //nolint:containedctx // Context is stored for transaction execution

	predicates []predicate.Predicate
	thenOps    []operation.Operation
	elseOps    []operation.Operation
	committed  bool
}

// newTxn creates a new transaction builder with the given client and context.
func newTxn(ctx context.Context, c *client) *txn {
	return &txn{
		client:     c,
		ctx:        ctx,
		predicates: nil,
		thenOps:    nil,
		elseOps:    nil,
		committed:  false,
	}
}

func (t *txn) checkMutable(method string) {
	if t.committed {
		panic(errdefs.IllegalState("%s called on a committed transaction", method))
	}
}

// If appends predicates to the transaction condition.
func (t *txn) If(predicates ...predicate.Predicate) tx.Txn {
	t.checkMutable("If")

	for i, pred := range predicates {
		if pred == nil {
			panic(errdefs.InvalidArgument("predicate %d of If call is nil", i))
		}
	}

	t.predicates = append(t.predicates, predicates...)

	return t
}

// Then appends operations to execute if predicates evaluate to true.
func (t *txn) Then(operations ...operation.Operation) tx.Txn {
	t.checkMutable("Then")

	checkOperations("Then", operations)

	t.thenOps = append(t.thenOps, operations...)

	return t
}

// Else appends operations to execute if predicates evaluate to false.
func (t *txn) Else(operations ...operation.Operation) tx.Txn {
	t.checkMutable("Else")

	checkOperations("Else", operations)

	t.elseOps = append(t.elseOps, operations...)

	return t
}

func checkOperations(method string, operations []operation.Operation) {
	for i, op := range operations {
		if op.IsZero() {
			panic(errdefs.InvalidArgument("operation %d of %s call is not initialized", i, method))
		}
	}
}

// Commit freezes the transaction and hands it to the executor on a new goroutine.
func (t *txn) Commit() (*tx.Future, error) {
	if t.committed {
		return nil, errdefs.IllegalState("transaction is already committed")
	}

	t.committed = true

	desc := tx.NewDescriptor(t.predicates, t.thenOps, t.elseOps)

	logger := t.client.logger.With(zap.String("txn_id", t.client.newID()))
	logger.Debug("transaction committed",
		zap.Int("predicates", len(t.predicates)),
		zap.Int("then", len(t.thenOps)),
		zap.Int("else", len(t.elseOps)))

	exec := t.client.exec

	return tx.NewFuture(t.ctx, func(ctx context.Context) (tx.Response, error) {
		resp, err := exec.Execute(ctx, desc)
		if err == nil {
			err = checkResponse(desc, resp)
		}

		if err != nil {
			logger.Warn("transaction failed", zap.Error(err))

			return tx.Response{}, err
		}

		logger.Debug("transaction completed",
			zap.Bool("succeeded", resp.Succeeded),
			zap.Int64("revision", resp.Revision))

		return resp, nil
	}), nil
}

// checkResponse verifies that the executor answered every operation of the branch it reports.
// A transaction without predicates always takes the success branch.
func checkResponse(desc tx.Descriptor, resp tx.Response) error {
	if !resp.Succeeded && len(desc.Predicates()) == 0 {
		return errdefs.IllegalState("executor took the failure branch of a transaction without predicates")
	}

	ops := desc.Branch(resp.Succeeded)

	if len(resp.Results) != len(ops) {
		return errdefs.IllegalState("executor returned %d results for %d operations", len(resp.Results), len(ops))
	}

	for i, op := range ops {
		if resp.Results[i].Type != op.Type() {
			return errdefs.IllegalState("result %d is of type %s, operation is %s", i, resp.Results[i].Type, op.Type())
		}
	}

	return nil
}
