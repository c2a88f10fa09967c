// Package etcdtest starts in-process etcd clusters for integration tests.
package etcdtest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
	etcdintegration "go.etcd.io/etcd/tests/v3/framework/integration"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const dialTimeout = 5 * time.Second

// Cluster is an in-process etcd cluster started on first use.
type Cluster struct {
	cfg     etcdintegration.ClusterConfig
	once    sync.Once
	cluster *etcdintegration.Cluster
	owner   *ownerTB
}

// NewCluster returns a handle to a cluster of the given size. Nothing is
// started until Endpoints is called. Framework output goes to logger, which
// may be nil.
func NewCluster(size int, logger *zap.Logger) *Cluster {
	return &Cluster{
		cfg:     etcdintegration.ClusterConfig{Size: size}, //nolint:exhaustruct
		once:    sync.Once{},
		cluster: nil,
		owner:   newOwnerTB("etcdtest_cluster", logger),
	}
}

// Endpoints returns the gRPC endpoints of the first member, starting the cluster if needed.
func (c *Cluster) Endpoints() []string {
	c.once.Do(func() {
		c.cluster = etcdintegration.NewCluster(c.owner, &c.cfg)
	})

	return c.cluster.Client(0).Endpoints()
}

// Terminate stops the cluster if it was started. It is safe to call more than once.
func (c *Cluster) Terminate() {
	if c == nil {
		return
	}

	if c.cluster != nil {
		c.cluster.Terminate(nil)

		c.cluster = nil
	}

	c.owner.release()
}

// NewClient starts a single-member cluster for t and returns a client connected
// to it. Both are released when t finishes. The test is skipped with -short.
func NewClient(t *testing.T) *clientv3.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping etcd integration test in short mode")
	}

	etcdintegration.BeforeTest(quietTB{TB: t}, etcdintegration.WithoutGoLeakDetection())

	cluster := NewCluster(1, zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)))
	t.Cleanup(cluster.Terminate)

	client, err := clientv3.New(clientv3.Config{ //nolint:exhaustruct
		Endpoints:   cluster.Endpoints(),
		DialTimeout: dialTimeout,
	})
	require.NoError(t, err, "failed to create etcd client")

	t.Cleanup(func() { _ = client.Close() })

	return client
}
