// Package tkv provides a Tarantool config storage implementation of the executor
// interface. Transactions are sent as one call of the config.storage.txn stored
// procedure.
package tkv

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/tarantool/go-tarantool/v2"
	"github.com/tarantool/go-tarantool/v2/pool"
	"go.uber.org/zap"

	"github.com/Dataman-Cloud/jetcd/config"
	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/internal/options"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// TxnProcedure is the stored procedure that executes a transaction.
const TxnProcedure = "config.storage.txn"

// ErrUnexpectedResponse is returned when the response from tarantool has unexpected format.
var ErrUnexpectedResponse = errors.New("unexpected response from tarantool")

// Conn is the part of a Tarantool connection the executor needs.
// *tarantool.Connection and *pool.ConnectorAdapter satisfy it.
type Conn interface {
	tarantool.Doer
}

type executorOptions struct {
	logger *zap.Logger
}

// Option configures the Tarantool executor.
type Option = options.OptionCallback[executorOptions]

// WithLogger sets the logger used to report failed calls.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *executorOptions) {
		opts.logger = logger
	}
}

// Executor is a Tarantool implementation of the executor interface.
//
// The config storage keeps only the latest value of each key and knows nothing
// about versions, leases or arbitrary ranges. Descriptors that need any of those
// are rejected with errdefs.ErrInvalidArgument before a request is sent.
type Executor struct {
	conn   Conn
	logger *zap.Logger
	closer func() error
}

var _ executor.Executor = (*Executor)(nil)

// New creates an executor on top of an existing connection, which stays owned
// by the caller.
func New(conn Conn, opts ...Option) *Executor {
	cfg := options.ApplyOptions[executorOptions](nil, opts)

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	return &Executor{
		conn:   conn,
		logger: cfg.logger,
		closer: func() error { return nil },
	}
}

// NewFromConfig connects a pool to every address of cfg and sends requests to
// a writable instance. The returned executor owns the pool and closes it on Close.
func NewFromConfig(ctx context.Context, cfg config.Tarantool, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	instances := make([]pool.Instance, 0, len(cfg.Addrs))
	for i, addr := range cfg.Addrs {
		instances = append(instances, pool.Instance{
			Name: fmt.Sprintf("instance-%d", i),
			Dialer: &tarantool.NetDialer{ //nolint:exhaustruct
				Address:  addr,
				User:     cfg.User,
				Password: cfg.Password,
			},
			Opts: tarantool.Opts{ //nolint:exhaustruct
				Timeout: cfg.RequestTimeout,
			},
		})
	}

	connPool, err := pool.Connect(ctx, instances)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to tarantool pool %v", cfg.Addrs)
	}

	exec := New(pool.NewConnectorAdapter(connPool, pool.RW), WithLogger(logger))
	exec.closer = func() error {
		var result error
		for _, err := range connPool.Close() {
			result = errors.CombineErrors(result, err)
		}

		return result
	}

	return exec, nil
}

// Close releases the pool opened by NewFromConfig.
func (e *Executor) Close() error {
	return errors.Wrap(e.closer(), "failed to close tarantool pool")
}

// Execute calls the config storage transaction procedure with desc.
func (e *Executor) Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error) {
	if err := validate(desc); err != nil {
		return tx.Response{}, err
	}

	req := tarantool.NewCallRequest(TxnProcedure).
		Args([]any{newTxnRequest(desc)}).
		Context(ctx)

	var result []txnResponse

	switch err := e.conn.Do(req).GetTyped(&result); {
	case err != nil:
		e.logger.Warn("tarantool txn call failed",
			zap.Int("predicates", len(desc.Predicates())),
			zap.Int("on_success", len(desc.Then())),
			zap.Int("on_failure", len(desc.Else())),
			zap.Error(err))

		return tx.Response{}, errors.Wrap(err, "failed to execute transaction")
	case len(result) != 1:
		return tx.Response{}, errors.Wrapf(ErrUnexpectedResponse, "expected 1 response, got %d", len(result))
	}

	return result[0].asTxResponse(desc)
}
