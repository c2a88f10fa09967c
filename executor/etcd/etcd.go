// Package etcd provides an etcd implementation of the executor interface.
// It enables using etcd as a distributed key-value storage backend.
package etcd

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	etcd "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"

	"github.com/Dataman-Cloud/jetcd/config"
	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/internal/options"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// Client defines the minimal interface needed for etcd operations.
// *etcd.Client satisfies it; tests substitute their own implementation.
type Client interface {
	// Txn creates a new transaction.
	Txn(ctx context.Context) etcd.Txn
}

type executorOptions struct {
	logger         *zap.Logger
	requestTimeout time.Duration
}

// Option configures the etcd executor.
type Option = options.OptionCallback[executorOptions]

// WithLogger sets the logger used to report failed round trips.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *executorOptions) {
		opts.logger = logger
	}
}

// WithRequestTimeout bounds every round trip. Zero leaves the caller's context as is.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(opts *executorOptions) {
		opts.requestTimeout = timeout
	}
}

// Executor is an etcd implementation of the executor interface.
// Each transaction becomes exactly one etcd Txn request.
type Executor struct {
	client         Client
	logger         *zap.Logger
	requestTimeout time.Duration
	closer         func() error
}

var _ executor.Executor = (*Executor)(nil)

// New creates an executor using an existing etcd client.
// The client should be properly configured and connected to an etcd cluster;
// it stays owned by the caller.
func New(client Client, opts ...Option) *Executor {
	cfg := options.ApplyOptions[executorOptions](nil, opts)

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	return &Executor{
		client:         client,
		logger:         cfg.logger,
		requestTimeout: cfg.requestTimeout,
		closer:         func() error { return nil },
	}
}

// NewFromConfig connects to the cluster described by cfg. The returned executor
// owns the connection and releases it on Close.
func NewFromConfig(cfg config.Etcd, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := etcd.New(etcd.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
		Logger:      logger.Named("etcd-client"),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to etcd %v", cfg.Endpoints)
	}

	exec := New(client, WithLogger(logger), WithRequestTimeout(cfg.RequestTimeout))
	exec.closer = client.Close

	return exec, nil
}

// Close releases the connection opened by NewFromConfig.
func (e *Executor) Close() error {
	return errors.WithStack(e.closer())
}

// Execute sends the transaction to etcd as a single Txn request.
func (e *Executor) Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error) {
	cmps, err := predicatesToCmps(desc.Predicates())
	if err != nil {
		return tx.Response{}, errors.Wrap(err, "failed to convert predicates")
	}

	thenOps, err := operationsToEtcdOps(desc.Then())
	if err != nil {
		return tx.Response{}, errors.Wrap(err, "failed to convert then operations")
	}

	elseOps, err := operationsToEtcdOps(desc.Else())
	if err != nil {
		return tx.Response{}, errors.Wrap(err, "failed to convert else operations")
	}

	if e.requestTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.requestTimeout)
		defer cancel()
	}

	resp, err := e.client.Txn(ctx).If(cmps...).Then(thenOps...).Else(elseOps...).Commit()
	if err != nil {
		e.logger.Warn("etcd txn request failed",
			zap.Int("compares", len(cmps)),
			zap.Int("success_ops", len(thenOps)),
			zap.Int("failure_ops", len(elseOps)),
			zap.Error(err))

		return tx.Response{}, errors.Wrap(err, "etcd txn request failed")
	}

	return etcdResponseToTxResponse(resp)
}
