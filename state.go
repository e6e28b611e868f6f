package redisc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/efritz/glock"
)

// Cluster is the per-cluster authoritative owner of the slot-to-connection
// table, the set of open backend connections, and the monotonically
// increasing map version. It is created by Start and looked up by name
// through the package-level registry; callers never construct one
// directly.
//
// All exported methods are safe for concurrent use by many callers, as
// required by spec.md §5: mutating operations (Refresh,
// GetOrOpenConnection) update shared state under mu, though neither
// holds it across a network call, while GetConnectionBySlot reads a
// lock-free, atomically published snapshot of the slot map.
type Cluster struct {
	name      string
	transport Transport
	logger    Logger
	clock     glock.Clock
	breaker   BreakerFunc

	requestTTL int
	retryDelay time.Duration

	mu          sync.Mutex
	seeds       []string
	nodes       map[string]bool
	connections map[string]*connHandle
	refreshCh   chan struct{}
	closed      bool

	version uint64          // atomic
	slotMap atomic.Value    // holds *[hashSlots]*connHandle
}

func newCluster(name string, seeds []string, cfg *config) *Cluster {
	nodes := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		nodes[s] = true
	}

	transport := cfg.transport
	if transport == nil {
		transport = NewRedigoTransport(cfg.dialOptions...)
	}

	return &Cluster{
		name:        name,
		transport:   transport,
		logger:      cfg.logger,
		clock:       cfg.clock,
		breaker:     cfg.breaker,
		requestTTL:  cfg.requestTTL,
		retryDelay:  cfg.retryDelay,
		seeds:       seeds,
		nodes:       nodes,
		connections: make(map[string]*connHandle),
	}
}

// Name returns the cluster's registry name.
func (c *Cluster) Name() string { return c.name }

// Version returns the current map version, incremented once per
// successful topology refresh.
func (c *Cluster) Version() uint64 { return atomic.LoadUint64(&c.version) }

// GetConnectionBySlot returns the connection currently mapped to slot,
// along with the map version observed. It is a pure read that never
// blocks on a refresh: a slot with no known connection returns ok=false.
func (c *Cluster) GetConnectionBySlot(slot int) (conn *connHandle, version uint64, ok bool) {
	version = atomic.LoadUint64(&c.version)
	v, _ := c.slotMap.Load().(*[hashSlots]*connHandle)
	if v == nil {
		return nil, version, false
	}
	h := v[slot]
	if h == nil {
		return nil, version, false
	}
	return h, version, true
}

// GetOrOpenConnection returns the existing connection to node, or opens
// one. The dial itself runs outside mu, so concurrent callers for the
// same node may each dial it; only the first connection stored is kept
// and returned to all of them, and the others are closed, so the table
// never holds two connections to the same node.
func (c *Cluster) GetOrOpenConnection(node string) (*connHandle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClusterClosed
	}
	if h, ok := c.connections[node]; ok {
		c.mu.Unlock()
		return h, nil
	}
	c.mu.Unlock()

	var h *connHandle
	err := c.breaker(func(ctx context.Context) error {
		conn, err := c.transport.Open(node)
		if err != nil {
			return err
		}
		h = conn
		return nil
	})
	if err != nil {
		c.logger.Printf("redisc: %s: failed to open connection to %s: %v", c.name, node, err)
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = c.transport.Close(h)
		return nil, ErrClusterClosed
	}
	if existing, ok := c.connections[node]; ok {
		// lost the race against a concurrent opener; keep theirs
		c.mu.Unlock()
		_ = c.transport.Close(h)
		return existing, nil
	}
	c.connections[node] = h
	c.nodes[node] = true
	c.mu.Unlock()

	c.logger.Printf("redisc: %s: opened connection to %s", c.name, node)
	return h, nil
}

// Refresh issues CLUSTER SLOTS against a known node and rebuilds the
// slot map. If observed is older than the current version, the call is a
// no-op: a newer refresh already happened. Concurrent callers observing
// the same version coalesce onto a single physical round trip.
func (c *Cluster) Refresh(observed uint64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClusterClosed
	}
	if observed < atomic.LoadUint64(&c.version) {
		c.mu.Unlock()
		return nil
	}
	if ch := c.refreshCh; ch != nil {
		c.mu.Unlock()
		<-ch
		return nil
	}
	ch := make(chan struct{})
	c.refreshCh = ch
	c.mu.Unlock()

	err := c.doRefresh()

	c.mu.Lock()
	c.refreshCh = nil
	c.mu.Unlock()
	close(ch)

	if err != nil {
		c.logger.Printf("redisc: %s: refresh failed: %v", c.name, err)
	}
	return err
}

// refreshAsync fires a Refresh in the background and never blocks the
// caller; used by the classifier after a MOVED response, per spec.md
// §4.4 ("request a refresh (asynchronously)").
func (c *Cluster) refreshAsync(observed uint64) {
	go func() {
		_ = c.Refresh(observed)
	}()
}

func (c *Cluster) doRefresh() error {
	for _, addr := range c.knownNodes() {
		conn, err := c.GetOrOpenConnection(addr)
		if err != nil {
			continue
		}

		var ranges []SlotRange
		berr := c.breaker(func(ctx context.Context) error {
			r, err := c.transport.ClusterSlots(conn)
			ranges = r
			return err
		})
		if berr != nil {
			continue
		}

		newMap := &[hashSlots]*connHandle{}
		for _, sr := range ranges {
			h, err := c.GetOrOpenConnection(sr.Master)
			if err != nil {
				continue
			}
			for slot := sr.Start; slot <= sr.End && slot < hashSlots; slot++ {
				newMap[slot] = h
			}
		}

		c.slotMap.Store(newMap)
		atomic.AddUint64(&c.version, 1)
		c.logger.Printf("redisc: %s: refreshed slot map, version=%d", c.name, c.Version())
		return nil
	}
	return errAllNodesFailed
}

func (c *Cluster) knownNodes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	addrs := make([]string, 0, len(c.nodes))
	for addr := range c.nodes {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Close closes every open connection and marks the cluster unusable.
func (c *Cluster) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClusterClosed
	}
	c.closed = true
	conns := c.connections
	c.connections = nil
	c.mu.Unlock()

	var firstErr error
	for _, h := range conns {
		if err := c.transport.Close(h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
