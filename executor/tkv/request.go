package tkv

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/predicate"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// EncodingError is returned when a part of a transaction could not be encoded.
type EncodingError struct {
	Text string
	Err  error
}

// Error returns the error message.
func (e EncodingError) Error() string {
	return fmt.Sprintf("failed to encode %s: %s", e.Text, e.Err)
}

// Unwrap returns the underlying error.
func (e EncodingError) Unwrap() error {
	return e.Err
}

const (
	predicateArrayLen = 4
	putArrayLen       = 3
	otherArrayLen     = 2
)

var (
	//nolint:gochecknoglobals
	operators = map[predicate.Op]string{
		predicate.OpEqual:    "==",
		predicate.OpNotEqual: "!=",
		predicate.OpGreater:  ">",
		predicate.OpLess:     "<",
	}

	//nolint:gochecknoglobals
	targets = map[predicate.Target]string{
		predicate.TargetValue:       "value",
		predicate.TargetModRevision: "mod_revision",
	}

	//nolint:gochecknoglobals
	ops = map[operation.Type]string{
		operation.TypeGet:    "get",
		operation.TypePut:    "put",
		operation.TypeDelete: "delete",
	}

	_ msgpack.CustomEncoder = tkvPredicate{Predicate: nil}
	_ msgpack.CustomEncoder = tkvOperation{}
)

// tkvPredicate is encoded as [target, operator, value, key].
type tkvPredicate struct {
	predicate.Predicate
}

func (p tkvPredicate) EncodeMsgpack(enc *msgpack.Encoder) error {
	target, ok := targets[p.Target()]
	if !ok {
		return EncodingError{Text: "predicate target", Err: errors.Newf("unsupported target %s", p.Target())}
	}

	if err := enc.EncodeArrayLen(predicateArrayLen); err != nil {
		return EncodingError{Text: "predicate array length", Err: err}
	}

	if err := enc.EncodeString(target); err != nil {
		return EncodingError{Text: "predicate target", Err: err}
	}

	if err := enc.EncodeString(operators[p.Operation()]); err != nil {
		return EncodingError{Text: "predicate operator", Err: err}
	}

	var err error

	// The config storage compares values as strings.
	switch value := p.Value().(type) {
	case []byte:
		err = enc.EncodeString(string(value))
	case int64:
		err = enc.EncodeInt(value)
	default:
		err = enc.Encode(value)
	}

	if err != nil {
		return EncodingError{Text: "predicate value", Err: err}
	}

	if err := enc.EncodeString(string(p.Key())); err != nil {
		return EncodingError{Text: "predicate key", Err: err}
	}

	return nil
}

// tkvOperation is encoded as ["put", key, value] or as [type, key].
type tkvOperation struct {
	operation.Operation
}

func (o tkvOperation) EncodeMsgpack(enc *msgpack.Encoder) error {
	name := ops[o.Type()]

	arrayLen := otherArrayLen
	if o.Type() == operation.TypePut {
		arrayLen = putArrayLen
	}

	if err := enc.EncodeArrayLen(arrayLen); err != nil {
		return EncodingError{Text: name + " operation array length", Err: err}
	}

	if err := enc.EncodeString(name); err != nil {
		return EncodingError{Text: name + " operation type", Err: err}
	}

	if err := enc.EncodeString(string(o.Key())); err != nil {
		return EncodingError{Text: name + " operation key", Err: err}
	}

	if o.Type() != operation.TypePut {
		return nil
	}

	if err := enc.EncodeString(string(o.Value())); err != nil {
		return EncodingError{Text: name + " operation value", Err: err}
	}

	return nil
}

type txnRequest struct {
	Predicates []tkvPredicate `msgpack:"predicates"`
	OnSuccess  []tkvOperation `msgpack:"on_success"`
	OnFailure  []tkvOperation `msgpack:"on_failure"`
}

func newTxnRequest(desc tx.Descriptor) txnRequest {
	preds := desc.Predicates()

	req := txnRequest{
		Predicates: make([]tkvPredicate, 0, len(preds)),
		OnSuccess:  newTKVOperations(desc.Then()),
		OnFailure:  newTKVOperations(desc.Else()),
	}

	for _, p := range preds {
		req.Predicates = append(req.Predicates, tkvPredicate{p})
	}

	return req
}

func newTKVOperations(operations []operation.Operation) []tkvOperation {
	result := make([]tkvOperation, 0, len(operations))
	for _, o := range operations {
		result = append(result, tkvOperation{o})
	}

	return result
}
