package tx

// Response contains the result of a transaction execution.
type Response struct {
	// Succeeded indicates whether the transaction predicates evaluated to true.
	Succeeded bool
	// Revision is the store revision after the transaction was applied.
	Revision int64
	// Results contains the responses for each operation of the executed branch,
	// in the same order as the operations.
	Results []RequestResponse
}
