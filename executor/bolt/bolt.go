// Package bolt provides a persistent single-node implementation of the executor
// interface on top of a bbolt database file.
//
// Every transaction runs inside one bbolt read-write transaction, so a
// transaction that fails halfway leaves no trace in the file. Read-only
// transactions run inside a bbolt read transaction and do not block each other.
package bolt

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
	bbolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/Dataman-Cloud/jetcd/executor"
	"github.com/Dataman-Cloud/jetcd/internal/engine"
	"github.com/Dataman-Cloud/jetcd/internal/options"
	"github.com/Dataman-Cloud/jetcd/kv"
	"github.com/Dataman-Cloud/jetcd/tx"
)

var (
	keysBucket  = []byte("keys")
	metaBucket  = []byte("meta")
	revisionKey = []byte("revision")
)

const (
	initialRevision    = 1
	defaultOpenTimeout = time.Second
	defaultFileMode    = os.FileMode(0o600)
)

type config struct {
	openTimeout time.Duration
	fileMode    os.FileMode
	logger      *zap.Logger
}

// Option configures the bolt executor.
type Option = options.OptionCallback[config]

// WithOpenTimeout bounds how long Open waits for the file lock.
func WithOpenTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		cfg.openTimeout = timeout
	}
}

// WithFileMode sets the permissions of a newly created database file.
func WithFileMode(mode os.FileMode) Option {
	return func(cfg *config) {
		cfg.fileMode = mode
	}
}

// WithLogger sets the logger used for failures of the database file.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// Executor stores key-value pairs as msgpack-encoded records in a bbolt file.
type Executor struct {
	db     *bbolt.DB
	logger *zap.Logger
}

var _ executor.Executor = (*Executor)(nil)

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Executor, error) {
	cfg := options.ApplyOptions(func() config {
		return config{
			openTimeout: defaultOpenTimeout,
			fileMode:    defaultFileMode,
			logger:      zap.NewNop(),
		}
	}, opts)

	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	db, err := bbolt.Open(path, cfg.fileMode, &bbolt.Options{Timeout: cfg.openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bolt database %q", path)
	}

	err = db.Update(func(btx *bbolt.Tx) error {
		if _, err := btx.CreateBucketIfNotExists(keysBucket); err != nil {
			return errors.WithStack(err)
		}

		meta, err := btx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return errors.WithStack(err)
		}

		if meta.Get(revisionKey) != nil {
			return nil
		}

		return putRevision(meta, initialRevision)
	})
	if err != nil {
		_ = db.Close()

		return nil, errors.Wrapf(err, "failed to initialize bolt database %q", path)
	}

	return &Executor{db: db, logger: cfg.logger}, nil
}

// Close releases the database file.
func (e *Executor) Close() error {
	return errors.WithStack(e.db.Close())
}

// Execute implements executor.Executor.
func (e *Executor) Execute(ctx context.Context, desc tx.Descriptor) (tx.Response, error) {
	if err := ctx.Err(); err != nil {
		return tx.Response{}, errors.WithStack(err)
	}

	run := e.db.Update
	if desc.IsReadOnly() {
		run = e.db.View
	}

	var resp tx.Response

	err := run(func(btx *bbolt.Tx) error {
		backend, err := newBackend(btx)
		if err != nil {
			return err
		}

		resp, err = engine.Apply(backend, desc)

		return err
	})
	if err != nil {
		e.logger.Warn("bolt transaction rolled back", zap.String("path", e.db.Path()), zap.Error(err))

		return tx.Response{}, errors.Wrap(err, "bolt executor")
	}

	return resp, nil
}

type backend struct {
	keys     *bbolt.Bucket
	meta     *bbolt.Bucket
	revision int64
}

func newBackend(btx *bbolt.Tx) (*backend, error) {
	b := &backend{
		keys:     btx.Bucket(keysBucket),
		meta:     btx.Bucket(metaBucket),
		revision: 0,
	}

	raw := b.meta.Get(revisionKey)
	if raw == nil {
		return nil, errors.New("store revision is missing")
	}

	if err := msgpack.Unmarshal(raw, &b.revision); err != nil {
		return nil, errors.Wrap(err, "failed to decode store revision")
	}

	if b.revision < initialRevision {
		return nil, errors.Newf("store revision %d is invalid", b.revision)
	}

	return b, nil
}

func putRevision(meta *bbolt.Bucket, rev int64) error {
	raw, err := msgpack.Marshal(rev)
	if err != nil {
		return errors.Wrap(err, "failed to encode revision")
	}

	return errors.WithStack(meta.Put(revisionKey, raw))
}

func decode(raw []byte) (kv.KeyValue, error) {
	var item kv.KeyValue
	if err := msgpack.Unmarshal(raw, &item); err != nil {
		return kv.KeyValue{}, errors.Wrap(err, "failed to decode record")
	}

	return item.Clone(), nil
}

func (b *backend) Revision() int64 {
	return b.revision
}

func (b *backend) SetRevision(rev int64) error {
	if err := putRevision(b.meta, rev); err != nil {
		return err
	}

	b.revision = rev

	return nil
}

func (b *backend) Get(key []byte) (kv.KeyValue, bool, error) {
	raw := b.keys.Get(key)
	if raw == nil {
		return kv.KeyValue{}, false, nil
	}

	item, err := decode(raw)
	if err != nil {
		return kv.KeyValue{}, false, err
	}

	return item, true, nil
}

func (b *backend) Range(start, end []byte, fn func(kv.KeyValue) bool) error {
	cursor := b.keys.Cursor()

	for key, raw := cursor.Seek(start); key != nil; key, raw = cursor.Next() {
		if bytes.Compare(key, start) < 0 || !kv.InRange(key, start, end) {
			break
		}

		item, err := decode(raw)
		if err != nil {
			return err
		}

		if !fn(item) {
			break
		}
	}

	return nil
}

func (b *backend) Put(item kv.KeyValue) error {
	raw, err := msgpack.Marshal(item)
	if err != nil {
		return errors.Wrap(err, "failed to encode record")
	}

	return errors.WithStack(b.keys.Put(item.Key, raw))
}

func (b *backend) Delete(key []byte) error {
	return errors.WithStack(b.keys.Delete(key))
}
