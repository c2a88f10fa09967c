package tkv

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// DecodingError is returned when a transaction response could not be decoded.
type DecodingError struct {
	Text string
	Err  error
}

// Error returns the error message.
func (e DecodingError) Error() string {
	return fmt.Sprintf("failed to decode %s: %s", e.Text, e.Err)
}

// Unwrap returns the underlying error.
func (e DecodingError) Unwrap() error {
	return e.Err
}

type txnItem struct {
	Path        []byte `msgpack:"path"`
	ModRevision int64  `msgpack:"mod_revision"`
	Value       []byte `msgpack:"value"`
}

// txnResult holds the items one operation returned.
type txnResult struct {
	Items []txnItem
}

var _ msgpack.CustomDecoder = (*txnResult)(nil)

func (r *txnResult) DecodeMsgpack(dec *msgpack.Decoder) error {
	if err := dec.Decode(&r.Items); err != nil {
		return DecodingError{Text: "operation result", Err: err}
	}

	return nil
}

type txnResponseData struct {
	IsSuccess bool        `msgpack:"is_success"`
	Responses []txnResult `msgpack:"responses"`
}

type txnResponse struct {
	Data     txnResponseData `msgpack:"data"`
	Revision int64           `msgpack:"revision"`
}

// asTxResponse maps the per-operation results onto the branch desc executed.
func (r txnResponse) asTxResponse(desc tx.Descriptor) (tx.Response, error) {
	executed := desc.Branch(r.Data.IsSuccess)

	if len(r.Data.Responses) != len(executed) {
		return tx.Response{}, errors.Wrapf(ErrUnexpectedResponse,
			"expected %d operation results, got %d", len(executed), len(r.Data.Responses))
	}

	results := make([]tx.RequestResponse, 0, len(executed))

	for i, op := range executed {
		values := r.keyValues(r.Data.Responses[i].Items)

		result := tx.RequestResponse{Type: op.Type()} //nolint:exhaustruct

		switch op.Type() {
		case operation.TypeGet:
			result.Values = values
			result.Count = int64(len(values))
		case operation.TypeDelete:
			result.Deleted = int64(len(values))
			if op.PrevKV() {
				result.PrevValues = values
			}
		case operation.TypePut:
		}

		results = append(results, result)
	}

	return tx.Response{
		Succeeded: r.Data.IsSuccess,
		Revision:  r.Revision,
		Results:   results,
	}, nil
}

func (r txnResponse) keyValues(items []txnItem) []kv.KeyValue {
	values := make([]kv.KeyValue, 0, len(items))

	for _, item := range items {
		modRevision := item.ModRevision
		if modRevision == 0 {
			modRevision = r.Revision
		}

		values = append(values, kv.KeyValue{ //nolint:exhaustruct
			Key:         item.Path,
			Value:       item.Value,
			ModRevision: modRevision,
		})
	}

	slices.SortFunc(values, func(a, b kv.KeyValue) int {
		return bytes.Compare(a.Key, b.Key)
	})

	return values
}
