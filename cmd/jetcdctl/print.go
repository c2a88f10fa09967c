package main

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// printTxn writes SUCCESS or FAILURE followed by the result of every executed
// request, each preceded by a blank line. executed is the branch that ran.
func printTxn(w io.Writer, executed []operation.Operation, resp tx.Response) error {
	status := "FAILURE"
	if resp.Succeeded {
		status = "SUCCESS"
	}

	if _, err := fmt.Fprintln(w, status); err != nil {
		return errors.WithStack(err)
	}

	for i, result := range resp.Results {
		if _, err := fmt.Fprintln(w); err != nil {
			return errors.WithStack(err)
		}

		if err := printResult(w, executed[i], result); err != nil {
			return err
		}
	}

	return nil
}

// printResult writes one request result the way etcdctl does in its simple format.
func printResult(w io.Writer, op operation.Operation, result tx.RequestResponse) error {
	var lines []string

	switch result.Type {
	case operation.TypeGet:
		if op.CountOnly() {
			lines = append(lines, fmt.Sprint(result.Count))
		}

		lines = appendPairs(lines, result.Values)
	case operation.TypePut:
		lines = appendPairs(append(lines, "OK"), result.PrevValues)
	case operation.TypeDelete:
		lines = appendPairs(append(lines, fmt.Sprint(result.Deleted)), result.PrevValues)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.WithStack(err)
		}
	}

	return nil
}

func appendPairs(lines []string, pairs []kv.KeyValue) []string {
	for _, pair := range pairs {
		lines = append(lines, string(pair.Key))
		if pair.Value != nil {
			lines = append(lines, string(pair.Value))
		}
	}

	return lines
}
