package etcd

import (
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/operation"
)

// operationsToEtcdOps converts operations to etcd operations.
func operationsToEtcdOps(ops []operation.Operation) ([]etcd.Op, error) {
	etcdOps := make([]etcd.Op, 0, len(ops))
	for _, op := range ops {
		etcdOp, err := operationToEtcdOp(op)
		if err != nil {
			return nil, err
		}

		etcdOps = append(etcdOps, etcdOp)
	}

	return etcdOps, nil
}

// operationToEtcdOp converts an operation to an etcd operation.
func operationToEtcdOp(op operation.Operation) (etcd.Op, error) {
	key := string(op.Key())

	var opts []etcd.OpOption

	if end := op.RangeEnd(); end != nil {
		// etcd rejects empty keys; "\x00" is the lowest key it accepts.
		if key == "" {
			key = "\x00"
		}

		opts = append(opts, etcd.WithRange(string(end)))
	}

	switch op.Type() {
	case operation.TypeGet:
		getOpts, err := getOptions(op)
		if err != nil {
			return etcd.Op{}, err
		}

		return etcd.OpGet(key, append(opts, getOpts...)...), nil
	case operation.TypePut:
		if op.PrevKV() {
			opts = append(opts, etcd.WithPrevKV())
		}

		if lease, ok := op.Lease(); ok {
			opts = append(opts, etcd.WithLease(etcd.LeaseID(lease)))
		}

		return etcd.OpPut(key, string(op.Value()), opts...), nil
	case operation.TypeDelete:
		if op.PrevKV() {
			opts = append(opts, etcd.WithPrevKV())
		}

		return etcd.OpDelete(key, opts...), nil
	default:
		return etcd.Op{}, errdefs.InvalidArgument("unsupported operation type %s", op.Type())
	}
}

func getOptions(op operation.Operation) ([]etcd.OpOption, error) {
	var opts []etcd.OpOption

	if limit := op.Limit(); limit > 0 {
		opts = append(opts, etcd.WithLimit(limit))
	}

	if target, order := op.Sort(); target != operation.SortByKey || order != operation.SortNone {
		etcdTarget, err := sortTarget(target)
		if err != nil {
			return nil, err
		}

		etcdOrder, err := sortOrder(order)
		if err != nil {
			return nil, err
		}

		opts = append(opts, etcd.WithSort(etcdTarget, etcdOrder))
	}

	if rev := op.Revision(); rev > 0 {
		opts = append(opts, etcd.WithRev(rev))
	}

	if op.KeysOnly() {
		opts = append(opts, etcd.WithKeysOnly())
	}

	if op.CountOnly() {
		opts = append(opts, etcd.WithCountOnly())
	}

	if op.Serializable() {
		opts = append(opts, etcd.WithSerializable())
	}

	return opts, nil
}

func sortTarget(target operation.SortTarget) (etcd.SortTarget, error) {
	switch target {
	case operation.SortByKey:
		return etcd.SortByKey, nil
	case operation.SortByVersion:
		return etcd.SortByVersion, nil
	case operation.SortByCreateRevision:
		return etcd.SortByCreateRevision, nil
	case operation.SortByModRevision:
		return etcd.SortByModRevision, nil
	case operation.SortByValue:
		return etcd.SortByValue, nil
	default:
		return 0, errdefs.InvalidArgument("unsupported sort target %s", target)
	}
}

func sortOrder(order operation.SortOrder) (etcd.SortOrder, error) {
	switch order {
	case operation.SortNone:
		return etcd.SortNone, nil
	case operation.SortAscend:
		return etcd.SortAscend, nil
	case operation.SortDescend:
		return etcd.SortDescend, nil
	default:
		return 0, errdefs.InvalidArgument("unsupported sort order %s", order)
	}
}
