// Package engine evaluates transaction descriptors against a local store with
// etcd v3 semantics. Stores plug in through Backend; the engine owns revision
// bookkeeping, comparisons and the per-operation result shapes.
package engine

import (
	"bytes"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
	"github.com/Dataman-Cloud/jetcd/tx"
)

var (
	// ErrCompacted is returned when a Get asks for a revision older than the one the store retains.
	ErrCompacted = errors.New("required revision has been compacted")
	// ErrFutureRevision is returned when a Get asks for a revision the store has not reached.
	ErrFutureRevision = errors.New("required revision is a future revision")
	// ErrDuplicateKey is returned when a branch writes the same key more than once.
	ErrDuplicateKey = errors.New("duplicate key given in txn request")
)

// Backend is the view of a store for the duration of one Apply call. All reads
// observe the writes made earlier through the same Backend.
type Backend interface {
	// Revision returns the current store revision.
	Revision() int64
	// SetRevision records the store revision after a change.
	SetRevision(rev int64) error
	// Get returns the pair stored under key.
	Get(key []byte) (kv.KeyValue, bool, error)
	// Range calls fn for every stored pair with start <= key < end in ascending
	// key order until fn returns false. kv.UnboundedEnd() as end has no upper bound.
	Range(start, end []byte, fn func(item kv.KeyValue) bool) error
	// Put stores item under item.Key.
	Put(item kv.KeyValue) error
	// Delete removes key.
	Delete(key []byte) error
}

// Apply evaluates the predicates of desc, then applies the operations of the
// chosen branch in order. A descriptor rejected by validation leaves the store
// untouched. Backend failures are returned as is; callers that need atomicity
// across a failing Backend roll back on their side.
func Apply(backend Backend, desc tx.Descriptor) (tx.Response, error) {
	if err := checkBranch(desc.Then()); err != nil {
		return tx.Response{}, err
	}

	if err := checkBranch(desc.Else()); err != nil {
		return tx.Response{}, err
	}

	rev := backend.Revision()

	succeeded := true

	for _, pred := range desc.Predicates() {
		ok, err := evaluate(backend, pred)
		if err != nil {
			return tx.Response{}, err
		}

		if !ok {
			succeeded = false

			break
		}
	}

	ops := desc.Branch(succeeded)

	for _, op := range ops {
		if err := checkRevision(op, rev); err != nil {
			return tx.Response{}, err
		}
	}

	app := applier{backend: backend, rev: rev}

	results := make([]tx.RequestResponse, 0, len(ops))

	for _, op := range ops {
		res, err := app.apply(op)
		if err != nil {
			return tx.Response{}, err
		}

		results = append(results, res)
	}

	if app.changed {
		if err := backend.SetRevision(app.next()); err != nil {
			return tx.Response{}, errors.Wrap(err, "failed to store revision")
		}
	}

	return tx.Response{
		Succeeded: succeeded,
		Revision:  backend.Revision(),
		Results:   results,
	}, nil
}

// checkBranch rejects a branch that writes a key twice, either with two puts or
// with a put inside a delete range.
func checkBranch(ops []operation.Operation) error {
	puts := make(map[string]struct{})

	for _, op := range ops {
		if op.Type() != operation.TypePut {
			continue
		}

		key := string(op.Key())
		if _, ok := puts[key]; ok {
			return errors.Wrapf(ErrDuplicateKey, "key %q", key)
		}

		puts[key] = struct{}{}
	}

	for _, op := range ops {
		if op.Type() != operation.TypeDelete {
			continue
		}

		for key := range puts {
			if covers(op.Key(), op.RangeEnd(), []byte(key)) {
				return errors.Wrapf(ErrDuplicateKey, "key %q is both put and deleted", key)
			}
		}
	}

	return nil
}

func covers(start, end, key []byte) bool {
	if end == nil {
		return bytes.Equal(start, key)
	}

	return kv.InRange(key, start, end)
}

func checkRevision(op operation.Operation, current int64) error {
	rev := op.Revision()

	switch {
	case op.Type() != operation.TypeGet || rev == 0:
		return nil
	case rev > current:
		return errors.Wrapf(ErrFutureRevision, "revision %d, current %d", rev, current)
	case rev < current:
		return errors.Wrapf(ErrCompacted, "revision %d, retained %d", rev, current)
	default:
		return nil
	}
}

func collect(backend Backend, start, end []byte) ([]kv.KeyValue, error) {
	if end == nil {
		item, ok, err := backend.Get(start)
		if err != nil || !ok {
			return nil, err
		}

		return []kv.KeyValue{item}, nil
	}

	var items []kv.KeyValue

	err := backend.Range(start, end, func(item kv.KeyValue) bool {
		items = append(items, item)

		return true
	})

	return items, err
}

// evaluate reports whether pred holds. Keys that do not exist compare as zero
// version, revisions and lease; a value comparison against them never holds.
func evaluate(backend Backend, pred predicate.Predicate) (bool, error) {
	items, err := collect(backend, pred.Key(), pred.RangeEnd())
	if err != nil {
		return false, errors.Wrap(err, "failed to read compared keys")
	}

	if len(items) == 0 {
		if pred.Target() == predicate.TargetValue {
			return false, nil
		}

		return compare(pred, kv.KeyValue{}), nil
	}

	for _, item := range items {
		if !compare(pred, item) {
			return false, nil
		}
	}

	return true, nil
}

func compare(pred predicate.Predicate, item kv.KeyValue) bool {
	var result int

	switch pred.Target() {
	case predicate.TargetValue:
		expected, _ := pred.Value().([]byte)
		result = bytes.Compare(item.Value, expected)
	default:
		expected, _ := pred.Value().(int64)
		result = cmpInt(numericField(pred.Target(), item), expected)
	}

	return pred.Operation().Holds(result)
}

func numericField(target predicate.Target, item kv.KeyValue) int64 {
	switch target {
	case predicate.TargetVersion:
		return item.Version
	case predicate.TargetCreateRevision:
		return item.CreateRevision
	case predicate.TargetModRevision:
		return item.ModRevision
	case predicate.TargetLease:
		return item.Lease
	default:
		return 0
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type applier struct {
	backend Backend
	rev     int64
	changed bool
}

func (a *applier) next() int64 {
	return a.rev + 1
}

func (a *applier) apply(op operation.Operation) (tx.RequestResponse, error) {
	switch op.Type() {
	case operation.TypeGet:
		return a.get(op)
	case operation.TypePut:
		return a.put(op)
	case operation.TypeDelete:
		return a.delete(op)
	default:
		return tx.RequestResponse{}, errors.Newf("unsupported operation type %s", op.Type())
	}
}

func (a *applier) get(op operation.Operation) (tx.RequestResponse, error) {
	items, err := collect(a.backend, op.Key(), op.RangeEnd())
	if err != nil {
		return tx.RequestResponse{}, errors.Wrap(err, "failed to read range")
	}

	resp := tx.RequestResponse{
		Type:  operation.TypeGet,
		Count: int64(len(items)),
	}

	if op.CountOnly() {
		return resp, nil
	}

	sortItems(items, op)

	if limit := op.Limit(); limit > 0 && int64(len(items)) > limit {
		items = items[:limit]
		resp.More = true
	}

	if op.KeysOnly() {
		for i := range items {
			items[i].Value = nil
		}
	}

	resp.Values = items

	return resp, nil
}

func sortItems(items []kv.KeyValue, op operation.Operation) {
	target, order := op.Sort()

	if order == operation.SortNone {
		if target == operation.SortByKey {
			return
		}

		order = operation.SortAscend
	}

	if target == operation.SortByKey && order == operation.SortAscend {
		return
	}

	slices.SortStableFunc(items, func(x, y kv.KeyValue) int {
		var result int

		switch target {
		case operation.SortByVersion:
			result = cmpInt(x.Version, y.Version)
		case operation.SortByCreateRevision:
			result = cmpInt(x.CreateRevision, y.CreateRevision)
		case operation.SortByModRevision:
			result = cmpInt(x.ModRevision, y.ModRevision)
		case operation.SortByValue:
			result = bytes.Compare(x.Value, y.Value)
		default:
			result = bytes.Compare(x.Key, y.Key)
		}

		if order == operation.SortDescend {
			return -result
		}

		return result
	})
}

func (a *applier) put(op operation.Operation) (tx.RequestResponse, error) {
	key := op.Key()

	prev, existed, err := a.backend.Get(key)
	if err != nil {
		return tx.RequestResponse{}, errors.Wrapf(err, "failed to read key %q", key)
	}

	item := kv.KeyValue{
		Key:            key,
		Value:          op.Value(),
		CreateRevision: a.next(),
		ModRevision:    a.next(),
		Version:        1,
	}

	if existed {
		item.CreateRevision = prev.CreateRevision
		item.Version = prev.Version + 1
	}

	if lease, ok := op.Lease(); ok {
		item.Lease = lease
	}

	if err := a.backend.Put(item); err != nil {
		return tx.RequestResponse{}, errors.Wrapf(err, "failed to write key %q", key)
	}

	a.changed = true

	resp := tx.RequestResponse{Type: operation.TypePut}

	if op.PrevKV() && existed {
		resp.PrevValues = []kv.KeyValue{prev}
	}

	return resp, nil
}

func (a *applier) delete(op operation.Operation) (tx.RequestResponse, error) {
	items, err := collect(a.backend, op.Key(), op.RangeEnd())
	if err != nil {
		return tx.RequestResponse{}, errors.Wrap(err, "failed to read range")
	}

	for _, item := range items {
		if err := a.backend.Delete(item.Key); err != nil {
			return tx.RequestResponse{}, errors.Wrapf(err, "failed to delete key %q", item.Key)
		}
	}

	if len(items) > 0 {
		a.changed = true
	}

	resp := tx.RequestResponse{
		Type:    operation.TypeDelete,
		Deleted: int64(len(items)),
	}

	if op.PrevKV() {
		resp.PrevValues = items
	}

	return resp, nil
}
