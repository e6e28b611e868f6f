package redisc

import (
	"context"
	"time"

	"github.com/efritz/glock"
	"github.com/efritz/overcurrent"
	"github.com/gomodule/redigo/redis"
)

const (
	// DefaultRequestTTL is the default maximum number of retries a
	// single Q/QP call (or one of its pipeline sub-queries) will take
	// before giving up and returning the last observed error.
	DefaultRequestTTL = 16

	// DefaultRetryDelay is the default fixed delay observed before each
	// attempt beyond the first, to throttle redirection storms.
	DefaultRetryDelay = 100 * time.Millisecond
)

// BreakerFunc bridges an overcurrent.CircuitBreaker's Call method (or an
// overcurrent.Registry's Call method bound to a config name) into the
// shape the Cluster needs to guard a dial or a CLUSTER SLOTS round trip.
// Mirrors efritz/deepjoy's BreakerFunc.
type BreakerFunc func(overcurrent.BreakerFunc) error

func noopBreakerFunc(f overcurrent.BreakerFunc) error {
	return f(context.Background())
}

// config holds the resolved options for a Cluster; Option mutates it.
type config struct {
	logger      Logger
	clock       glock.Clock
	breaker     BreakerFunc
	transport   Transport
	dialOptions []redis.DialOption
	requestTTL  int
	retryDelay  time.Duration
}

func newConfig() *config {
	return &config{
		logger:     NewNilLogger(),
		clock:      glock.NewRealClock(),
		breaker:    noopBreakerFunc,
		requestTTL: DefaultRequestTTL,
		retryDelay: DefaultRetryDelay,
	}
}

// Option configures a Cluster created by Start.
type Option func(*config)

// WithLogger sets the Logger used for connection, refresh and
// redirection events. Defaults to NewNilLogger().
func WithLogger(l Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClock sets the glock.Clock used for the retry-delay sleep. Tests
// can supply glock.NewMockClock() to advance time deterministically
// instead of sleeping in wall-clock time.
func WithClock(clk glock.Clock) Option {
	return func(c *config) { c.clock = clk }
}

// WithBreaker wraps every dial and every CLUSTER SLOTS round trip in the
// given circuit breaker, so a partitioned node stops being hammered by
// concurrent retries. Defaults to a no-op breaker.
func WithBreaker(b overcurrent.CircuitBreaker) Option {
	return func(c *config) { c.breaker = b.Call }
}

// WithBreakerRegistry is like WithBreaker but resolves the breaker by
// name from an overcurrent.Registry, mirroring
// efritz/deepjoy's WithBreakerRegistry.
func WithBreakerRegistry(registry overcurrent.Registry, name string) Option {
	return func(c *config) {
		c.breaker = func(f overcurrent.BreakerFunc) error {
			return registry.Call(name, f, nil)
		}
	}
}

// WithDialOptions sets the redigo dial options used by the default
// transport (ignored if WithTransport is also given).
func WithDialOptions(opts ...redis.DialOption) Option {
	return func(c *config) { c.dialOptions = opts }
}

// WithTransport overrides the default redigo-backed Transport, for
// example with an in-process fake.
func WithTransport(t Transport) Option {
	return func(c *config) { c.transport = t }
}

// WithRequestTTL overrides DefaultRequestTTL.
func WithRequestTTL(n int) Option {
	return func(c *config) { c.requestTTL = n }
}

// WithRetryDelay overrides DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) { c.retryDelay = d }
}
