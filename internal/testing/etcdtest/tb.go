package etcdtest

import (
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"go.etcd.io/etcd/client/pkg/v3/testutil"
	"go.uber.org/zap"
)

// ownerTB owns the resources of a cluster shared between tests. The etcd
// integration framework needs a testutil.TB for that, but no single test lives
// as long as the cluster does. Log lines go to a zap logger.
type ownerTB struct {
	name   string
	logger *zap.Logger

	mu       sync.Mutex
	failed   bool
	cleanups []func()
}

var _ testutil.TB = (*ownerTB)(nil)

func newOwnerTB(name string, logger *zap.Logger) *ownerTB {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ownerTB{
		name:     name,
		logger:   logger.Named(name),
		mu:       sync.Mutex{},
		failed:   false,
		cleanups: nil,
	}
}

func (t *ownerTB) Helper() {}

func (t *ownerTB) Name() string { return t.name }

func (t *ownerTB) Cleanup(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanups = append(t.cleanups, f)
}

func (t *ownerTB) Log(args ...any) { t.logger.Debug(fmt.Sprint(args...)) }

func (t *ownerTB) Logf(format string, args ...any) { t.logger.Debug(fmt.Sprintf(format, args...)) }

func (t *ownerTB) Error(args ...any) {
	t.logger.Error(fmt.Sprint(args...))
	t.Fail()
}

func (t *ownerTB) Errorf(format string, args ...any) {
	t.logger.Error(fmt.Sprintf(format, args...))
	t.Fail()
}

func (t *ownerTB) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failed = true
}

func (t *ownerTB) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.failed
}

func (t *ownerTB) FailNow() {
	t.Fail()
	panic(errors.Newf("%s: FailNow called", t.name))
}

func (t *ownerTB) Fatal(args ...any) {
	t.Fail()
	panic(errors.Newf("%s: %s", t.name, fmt.Sprint(args...)))
}

func (t *ownerTB) Fatalf(format string, args ...any) {
	t.Fail()
	panic(errors.Newf("%s: %s", t.name, fmt.Sprintf(format, args...)))
}

func (t *ownerTB) Skip(args ...any) {
	t.logger.Warn("skip requested outside of a test", zap.String("reason", fmt.Sprint(args...)))
}

// TempDir creates a directory that is removed after every other cleanup ran.
func (t *ownerTB) TempDir() string {
	dir, err := os.MkdirTemp("", t.name)
	if err != nil {
		t.Fatal(err)
	}

	t.mu.Lock()
	t.cleanups = append([]func(){func() { _ = os.RemoveAll(dir) }}, t.cleanups...)
	t.mu.Unlock()

	return dir
}

// release runs the registered cleanups in reverse order, once.
func (t *ownerTB) release() {
	t.mu.Lock()
	cleanups := t.cleanups
	t.cleanups = nil
	t.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// quietTB drops the log lines of a test. BeforeTest logs every goroutine
// check through it.
type quietTB struct {
	testutil.TB
}

func (quietTB) Log(...any) {}

func (quietTB) Logf(string, ...any) {}
