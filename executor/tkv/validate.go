package tkv

import (
	"bytes"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// prefixDelimiter ends every key the config storage treats as a prefix.
const prefixDelimiter = "/"

func validate(desc tx.Descriptor) error {
	for _, pred := range desc.Predicates() {
		if err := validatePredicate(pred); err != nil {
			return err
		}
	}

	for _, ops := range [][]operation.Operation{desc.Then(), desc.Else()} {
		for _, op := range ops {
			if err := validateOperation(op); err != nil {
				return err
			}
		}
	}

	return nil
}

func validatePredicate(pred predicate.Predicate) error {
	if _, ok := targets[pred.Target()]; !ok {
		return errdefs.InvalidArgument("tarantool does not support %s predicates", pred.Target())
	}

	if pred.RangeEnd() != nil {
		return errdefs.InvalidArgument("tarantool does not support range predicates, key %q", pred.Key())
	}

	return nil
}

func validateOperation(op operation.Operation) error {
	target, order := op.Sort()
	_, hasLease := op.Lease()

	switch {
	case op.IsRange() && !(op.IsPrefix() && bytes.HasSuffix(op.Key(), []byte(prefixDelimiter))):
		return errdefs.InvalidArgument("tarantool supports only prefixes ending with %q, key %q",
			prefixDelimiter, op.Key())
	case !op.IsRange() && bytes.HasSuffix(op.Key(), []byte(prefixDelimiter)):
		return errdefs.InvalidArgument("key %q would be read as a prefix, use operation.WithPrefix", op.Key())
	case op.Limit() != 0:
		return errdefs.InvalidArgument("tarantool does not support limits")
	case target != operation.SortByKey || order != operation.SortNone:
		return errdefs.InvalidArgument("tarantool does not support sorting")
	case op.Revision() != 0:
		return errdefs.InvalidArgument("tarantool does not support reads at a revision")
	case op.KeysOnly() || op.CountOnly():
		return errdefs.InvalidArgument("tarantool does not support keys-only and count-only reads")
	case hasLease:
		return errdefs.InvalidArgument("tarantool does not support leases")
	case op.Type() == operation.TypePut && op.PrevKV():
		return errdefs.InvalidArgument("tarantool does not return previous values of a put")
	}

	return nil
}
