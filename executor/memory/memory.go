// Package memory provides an in-memory implementation of the executor interface
// for tests, examples and single-process use.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	rbt "github.com/emirpasic/gods/trees/redblacktree"

	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/internal/engine"
	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/tx"
)

const initialRevision = 1

func byteSliceComparator(a, b any) int {
	ab, okA := a.([]byte)
	bb, okB := b.([]byte)

	switch {
	case okA && okB:
		return bytes.Compare(ab, bb)
	case okA:
		return 1
	case okB:
		return -1
	default:
		return 0
	}
}

// Executor keeps the store in an ordered map and applies each transaction
// under a single lock, which makes every transaction atomic and linearizable.
type Executor struct {
	mu       sync.Mutex
	tree     *rbt.Tree // key []byte -> kv.KeyValue
	revision int64
}

var _ executor.Executor = (*Executor)(nil)

// New creates an empty store at revision 1.
func New() *Executor {
	return &Executor{
		mu:       sync.Mutex{},
		tree:     rbt.NewWith(byteSliceComparator),
		revision: initialRevision,
	}
}

// Execute implements executor.Executor.
func (e *Executor) Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error) {
	if err := ctx.Err(); err != nil {
		return tx.Response{}, errors.WithStack(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	resp, err := engine.Apply(backend{e}, desc)
	if err != nil {
		return tx.Response{}, errors.Wrap(err, "memory executor")
	}

	return resp, nil
}

// Len returns the number of keys in the store.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tree.Size()
}

// backend adapts the executor state to engine.Backend. It is used only while
// the executor lock is held.
type backend struct {
	e *Executor
}

func (b backend) Revision() int64 {
	return b.e.revision
}

func (b backend) SetRevision(rev int64) error {
	b.e.revision = rev

	return nil
}

func (b backend) Get(key []byte) (kv.KeyValue, bool, error) {
	v, ok := b.e.tree.Get(key)
	if !ok {
		return kv.KeyValue{}, false, nil
	}

	item, _ := v.(kv.KeyValue)

	return item.Clone(), true, nil
}

func (b backend) Range(start, end []byte, fn func(kv.KeyValue) bool) error {
	node, found := b.e.tree.Ceiling(start)
	if !found {
		return nil
	}

	it := b.e.tree.IteratorAt(node)

	for ok := true; ok; ok = it.Next() {
		key, _ := it.Key().([]byte)
		if !kv.InRange(key, start, end) {
			break
		}

		item, _ := it.Value().(kv.KeyValue)
		if !fn(item.Clone()) {
			break
		}
	}

	return nil
}

func (b backend) Put(item kv.KeyValue) error {
	item = item.Clone()
	b.e.tree.Put(item.Key, item)

	return nil
}

func (b backend) Delete(key []byte) error {
	b.e.tree.Remove(key)

	return nil
}
