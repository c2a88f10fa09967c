package jetcd

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dataman-Cloud/jetcd/errdefs"
	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/internal/options"
	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/operation"
	"github.com/Dataman-Cloud/jetcd/tx"
)

// Client is the entry point for building transactions against a store.
// A Client is safe for concurrent use; the transactions it creates are not.
type Client interface {
	// Txn starts a new transaction. ctx bounds the store round trip made by Commit.
	Txn(ctx context.Context) tx.Txn

	// Do runs op as an unconditional single-operation transaction and waits for its result.
	Do(ctx context.Context, op operation.Operation) (tx.RequestResponse, error)

	// Get reads key, or a range of keys when a range option is given.
	Get(ctx context.Context, key []byte, opts ...operation.Option) ([]kv.KeyValue, error)

	// Put writes value under key.
	Put(ctx context.Context, key []byte, value []byte, opts ...operation.Option) (tx.RequestResponse, error)

	// Delete removes key, or a range of keys when a range option is given.
	Delete(ctx context.Context, key []byte, opts ...operation.Option) (tx.RequestResponse, error)
}

type clientOptions struct {
	logger      *zap.Logger
	idGenerator func() string
}

// Option configures a Client.
type Option = options.OptionCallback[clientOptions]

// WithLogger sets the logger that records the lifecycle of every transaction.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithIDGenerator sets the function producing the id a transaction is logged with.
func WithIDGenerator(gen func() string) Option {
	return func(opts *clientOptions) {
		opts.idGenerator = gen
	}
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		logger:      zap.NewNop(),
		idGenerator: uuid.NewString,
	}
}

// client is the concrete implementation of the Client interface.
type client struct {
	exec   executor.Executor
	logger *zap.Logger
	newID  func() string
}

// NewClient creates a Client that commits transactions through exec.
// It panics if exec is nil.
func NewClient(exec executor.Executor, opts ...Option) Client {
	if exec == nil {
		panic(errdefs.InvalidArgument("executor is nil"))
	}

	cfg := options.ApplyOptions(defaultClientOptions, opts)

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if cfg.idGenerator == nil {
		cfg.idGenerator = uuid.NewString
	}

	return &client{
		exec:   exec,
		logger: cfg.logger,
		newID:  cfg.idGenerator,
	}
}

func (c *client) Txn(ctx context.Context) tx.Txn {
	return newTxn(ctx, c)
}

func (c *client) Do(ctx context.Context, op operation.Operation) (tx.RequestResponse, error) {
	if op.IsZero() {
		return tx.RequestResponse{}, errdefs.InvalidArgument("operation is not initialized")
	}

	fut, err := c.Txn(ctx).Then(op).Commit()
	if err != nil {
		return tx.RequestResponse{}, err
	}

	resp, err := fut.GetContext(ctx)
	if err != nil {
		return tx.RequestResponse{}, err
	}

	if len(resp.Results) != 1 {
		return tx.RequestResponse{}, errdefs.TransactionFailed(
			errdefs.IllegalState("expected one result, got %d", len(resp.Results)))
	}

	return resp.Results[0], nil
}

func (c *client) Get(ctx context.Context, key []byte, opts ...operation.Option) ([]kv.KeyValue, error) {
	op, err := operation.NewGet(key, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, op)
	if err != nil {
		return nil, err
	}

	return resp.Values, nil
}

func (c *client) Put(
	ctx context.Context,
	key []byte,
	value []byte,
	opts ...operation.Option,
) (tx.RequestResponse, error) {
	op, err := operation.NewPut(key, value, opts...)
	if err != nil {
		return tx.RequestResponse{}, err
	}

	return c.Do(ctx, op)
}

func (c *client) Delete(ctx context.Context, key []byte, opts ...operation.Option) (tx.RequestResponse, error) {
	op, err := operation.NewDelete(key, opts...)
	if err != nil {
		return tx.RequestResponse{}, err
	}

	return c.Do(ctx, op)
}
