package redisc

import "sync"

// registry is the process-wide map from cluster name to Cluster State.
// Creation is idempotent per name: concurrent first-use produces exactly
// one Cluster, per spec.md §4.2.
var registry = struct {
	mu       sync.Mutex
	clusters map[string]*Cluster
}{clusters: make(map[string]*Cluster)}

// Start creates (or returns the existing) Cluster State for name, seeded
// with seeds ("host:port" strings). It is idempotent per name: a second
// Start for the same name returns the cluster created by the first call
// and ignores the new options.
func Start(name string, seeds []string, opts ...Option) (*Cluster, error) {
	registry.mu.Lock()
	if c, ok := registry.clusters[name]; ok {
		registry.mu.Unlock()
		return c, nil
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	c := newCluster(name, seeds, cfg)
	registry.clusters[name] = c
	registry.mu.Unlock()

	return c, nil
}

// Lookup returns the Cluster registered under name, if any.
func Lookup(name string) (*Cluster, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	c, ok := registry.clusters[name]
	return c, ok
}

// Forget removes name from the registry without closing its Cluster.
// It exists for test teardown; production code has no need to call it,
// since a Cluster's lifetime is meant to span the process.
func Forget(name string) {
	registry.mu.Lock()
	delete(registry.clusters, name)
	registry.mu.Unlock()
}
