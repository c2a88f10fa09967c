package executor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/tx"
)

func TestFunc(t *testing.T) {
	t.Parallel()

	called := false
	exec := executor.Func(func(_ context.Context, desc tx.Descriptor) (tx.Response, error) {
		called = true

		assert.True(t, desc.IsEmpty())

		return tx.Response{Succeeded: true}, nil
	})

	resp, err := exec.Execute(context.Background(), tx.NewDescriptor(nil, nil, nil))
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)
	assert.True(t, called)
}

func TestNewMetrics_Reuse(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	_, err := executor.NewMetrics(reg)
	require.NoError(t, err)

	_, err = executor.NewMetrics(reg)
	require.NoError(t, err)
}

func TestInstrumented(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	metrics, err := executor.NewMetrics(reg)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)

	outcomes := []struct {
		resp tx.Response
		err  error
	}{
		{tx.Response{Succeeded: true, Revision: 2}, nil},
		{tx.Response{Succeeded: true, Revision: 3}, nil},
		{tx.Response{Succeeded: false, Revision: 3}, nil},
		{tx.Response{}, errors.New("unavailable")},
	}

	call := 0
	next := executor.Func(func(_ context.Context, _ tx.Descriptor) (tx.Response, error) {
		out := outcomes[call]
		call++

		return out.resp, out.err
	})

	exec := executor.Instrumented(next, metrics, zap.New(core))

	for range outcomes[:3] {
		_, err := exec.Execute(context.Background(), tx.NewDescriptor(nil, nil, nil))
		require.NoError(t, err)
	}

	_, err = exec.Execute(context.Background(), tx.NewDescriptor(nil, nil, nil))
	require.EqualError(t, err, "unavailable")

	expected := `
# HELP jetcd_txn_commits_total Committed transactions by outcome (success, failure branch, error).
# TYPE jetcd_txn_commits_total counter
jetcd_txn_commits_total{result="error"} 1
jetcd_txn_commits_total{result="failure"} 1
jetcd_txn_commits_total{result="success"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "jetcd_txn_commits_total"))

	series, err := testutil.GatherAndCount(reg, "jetcd_txn_commit_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, series)

	assert.Equal(t, 1, logs.FilterMessage("transaction round trip failed").Len())
	assert.Equal(t, 3, logs.FilterMessage("transaction applied").Len())
}

func TestInstrumented_NilMetricsAndLogger(t *testing.T) {
	t.Parallel()

	next := executor.Func(func(_ context.Context, _ tx.Descriptor) (tx.Response, error) {
		return tx.Response{Succeeded: true}, nil
	})

	resp, err := executor.Instrumented(next, nil, nil).Execute(context.Background(), tx.Descriptor{})
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)
}
