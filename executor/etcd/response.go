package etcd

import (
	"github.com/cockroachdb/errors"
	"go.etcd.io/etcd/api/v3/mvccpb"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// etcdResponseToTxResponse converts an etcd transaction response to tx.Response.
func etcdResponseToTxResponse(resp *etcd.TxnResponse) (tx.Response, error) {
	results := make([]tx.RequestResponse, 0, len(resp.Responses))

	for i, etcdResp := range resp.Responses {
		switch {
		case etcdResp.GetResponseRange() != nil:
			rangeResp := etcdResp.GetResponseRange()

			results = append(results, tx.RequestResponse{
				Type:   operation.TypeGet,
				Values: convertKeyValues(rangeResp.Kvs),
				Count:  rangeResp.Count,
				More:   rangeResp.More,
			})
		case etcdResp.GetResponsePut() != nil:
			putResp := etcdResp.GetResponsePut()

			result := tx.RequestResponse{Type: operation.TypePut}
			if putResp.PrevKv != nil {
				result.PrevValues = convertKeyValues([]*mvccpb.KeyValue{putResp.PrevKv})
			}

			results = append(results, result)
		case etcdResp.GetResponseDeleteRange() != nil:
			deleteResp := etcdResp.GetResponseDeleteRange()

			results = append(results, tx.RequestResponse{
				Type:       operation.TypeDelete,
				PrevValues: convertKeyValues(deleteResp.PrevKvs),
				Deleted:    deleteResp.Deleted,
			})
		default:
			return tx.Response{}, errors.Newf("unexpected etcd response %d: %T", i, etcdResp.GetResponse())
		}
	}

	var revision int64
	if resp.Header != nil {
		revision = resp.Header.Revision
	}

	return tx.Response{
		Succeeded: resp.Succeeded,
		Revision:  revision,
		Results:   results,
	}, nil
}

func convertKeyValues(kvs []*mvccpb.KeyValue) []kv.KeyValue {
	if len(kvs) == 0 {
		return nil
	}

	out := make([]kv.KeyValue, 0, len(kvs))
	for _, item := range kvs {
		out = append(out, kv.KeyValue{
			Key:            item.Key,
			Value:          item.Value,
			CreateRevision: item.CreateRevision,
			ModRevision:    item.ModRevision,
			Version:        item.Version,
			Lease:          item.Lease,
		})
	}

	return out
}
