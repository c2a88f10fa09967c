package etcd

import (
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/predicate"
)

// predicatesToCmps converts a predicate list to an etcd comparison list.
func predicatesToCmps(predicates []predicate.Predicate) ([]etcd.Cmp, error) {
	convertedPredicates := make([]etcd.Cmp, 0, len(predicates))
	for _, pred := range predicates {
		convertedPredicate, err := predicateToCmp(pred)
		if err != nil {
			return nil, err
		}

		convertedPredicates = append(convertedPredicates, convertedPredicate)
	}

	return convertedPredicates, nil
}

// predicateToCmp converts a predicate to an etcd comparison.
func predicateToCmp(pred predicate.Predicate) (etcd.Cmp, error) {
	key := string(pred.Key())

	result := pred.Operation().Symbol()
	if result == "" {
		return etcd.Cmp{}, errdefs.InvalidArgument("unsupported predicate operation %s", pred.Operation())
	}

	var cmp etcd.Cmp

	if pred.Target() == predicate.TargetValue {
		value, ok := pred.Value().([]byte)
		if !ok {
			return etcd.Cmp{}, errdefs.InvalidArgument("value predicate requires []byte value, got %T", pred.Value())
		}

		cmp = etcd.Compare(etcd.Value(key), result, string(value))
	} else {
		value, ok := pred.Value().(int64)
		if !ok {
			return etcd.Cmp{}, errdefs.InvalidArgument("%s predicate requires int64 value, got %T",
				pred.Target(), pred.Value())
		}

		switch pred.Target() {
		case predicate.TargetVersion:
			cmp = etcd.Compare(etcd.Version(key), result, value)
		case predicate.TargetCreateRevision:
			cmp = etcd.Compare(etcd.CreateRevision(key), result, value)
		case predicate.TargetModRevision:
			cmp = etcd.Compare(etcd.ModRevision(key), result, value)
		case predicate.TargetLease:
			cmp = etcd.Compare(etcd.LeaseValue(key), result, value)
		default:
			return etcd.Cmp{}, errdefs.InvalidArgument("unsupported predicate target %s", pred.Target())
		}
	}

	if end := pred.RangeEnd(); end != nil {
		cmp = cmp.WithRange(string(end))
	}

	return cmp, nil
}
