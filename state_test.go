package redisc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCluster builds a Cluster over a fakeTransport with a real clock
// and a near-zero retry delay, so tests exercising retries don't have to
// pump a mock clock to unblock them but still run fast.
func newTestCluster(t *testing.T, ft *fakeTransport, seeds []string, opts ...Option) *Cluster {
	t.Helper()
	cfg := newConfig()
	cfg.transport = ft
	cfg.retryDelay = time.Millisecond
	for _, o := range opts {
		o(cfg)
	}
	return newCluster("test-"+t.Name(), seeds, cfg)
}

func TestClusterRefresh(t *testing.T) {
	ft := newFakeTransport()
	ft.slots = []SlotRange{
		{Start: 0, End: 8191, Master: "127.0.0.1:7000"},
		{Start: 8192, End: 16383, Master: "127.0.0.1:7001", Replicas: []string{"127.0.0.1:7002"}},
	}

	c := newTestCluster(t, ft, []string{"127.0.0.1:7000"})
	require.NoError(t, c.Refresh(c.Version()))

	conn, version, ok := c.GetConnectionBySlot(0)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:7000", conn.node)
	assert.Equal(t, uint64(1), version)

	conn, _, ok = c.GetConnectionBySlot(16383)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:7001", conn.node)
}

func TestClusterRefreshAllNodesFail(t *testing.T) {
	ft := newFakeTransport()
	ft.slotsErr = errAllNodesFailed

	c := newTestCluster(t, ft, []string{"127.0.0.1:7000"})
	err := c.Refresh(c.Version())
	require.Error(t, err)
	assert.Equal(t, errAllNodesFailed, err)
}

func TestClusterGetConnectionBySlotMiss(t *testing.T) {
	ft := newFakeTransport()
	c := newTestCluster(t, ft, []string{"127.0.0.1:7000"})

	_, _, ok := c.GetConnectionBySlot(0)
	assert.False(t, ok, "no refresh has happened yet")
}

func TestClusterGetOrOpenConnectionReusesExisting(t *testing.T) {
	ft := newFakeTransport()
	c := newTestCluster(t, ft, []string{"127.0.0.1:7000"})

	h1, err := c.GetOrOpenConnection("127.0.0.1:7000")
	require.NoError(t, err)
	h2, err := c.GetOrOpenConnection("127.0.0.1:7000")
	require.NoError(t, err)

	assert.Same(t, h1, h2, "second call must not open a new connection")
	assert.Len(t, ft.opened, 1)
}

func TestClusterCloseClosesAllConnections(t *testing.T) {
	ft := newFakeTransport()
	c := newTestCluster(t, ft, []string{"127.0.0.1:7000"})

	_, err := c.GetOrOpenConnection("127.0.0.1:7000")
	require.NoError(t, err)
	_, err = c.GetOrOpenConnection("127.0.0.1:7001")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.ElementsMatch(t, []string{"127.0.0.1:7000", "127.0.0.1:7001"}, ft.closed)

	_, err = c.GetOrOpenConnection("127.0.0.1:7002")
	assert.Equal(t, ErrClusterClosed, err)

	assert.Equal(t, ErrClusterClosed, c.Close(), "closing twice is an error")
}

func TestClusterRefreshStaleVersionIsNoop(t *testing.T) {
	ft := newFakeTransport()
	ft.slots = []SlotRange{{Start: 0, End: hashSlots - 1, Master: "127.0.0.1:7000"}}

	c := newTestCluster(t, ft, []string{"127.0.0.1:7000"})
	require.NoError(t, c.Refresh(c.Version()))
	require.Equal(t, uint64(1), c.Version())

	// an observed version older than current must not trigger a second
	// physical round trip
	require.NoError(t, c.Refresh(0))
	assert.Equal(t, uint64(1), c.Version())
}
