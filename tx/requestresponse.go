package tx

import (
	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/operation"
)

// RequestResponse represents the response for an individual transaction operation.
type RequestResponse struct {
	// Type is the type of the operation the response belongs to.
	Type operation.Type
	// Values contains the key-value pairs returned by a Get operation.
	Values []kv.KeyValue
	// PrevValues contains the pairs a Put replaced or a Delete removed,
	// filled only when the operation was built with operation.WithPrevKV.
	PrevValues []kv.KeyValue
	// Count is the number of keys matched by a Get operation, ignoring its limit.
	Count int64
	// More reports whether a Get operation had more keys than its limit allowed.
	More bool
	// Deleted is the number of keys removed by a Delete operation.
	Deleted int64
}
