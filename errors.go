package redisc

import "errors"

// Sentinel errors for the outcomes described in the error taxonomy: most
// are recoverable and never escape the engine, but are exposed so callers
// (and tests) can use errors.Is against the final result.
var (
	// ErrInvalidClusterKey is returned when no routable key could be
	// derived from a command. Terminal, never retried.
	ErrInvalidClusterKey = errors.New("redisc: invalid cluster key")

	// ErrNoConnection is returned after the request TTL is exhausted
	// while the targeted slot never resolved to a connection.
	ErrNoConnection = errors.New("redisc: no connection for slot")

	// ErrTTLExhausted is returned when a query hits the request TTL
	// without a terminal success or a more specific error to report.
	ErrTTLExhausted = errors.New("redisc: retries exhausted")

	// ErrClusterClosed is returned by any operation on a closed Cluster.
	ErrClusterClosed = errors.New("redisc: cluster closed")

	// ErrClusterNotFound is returned by Q/QP when the named cluster was
	// never started.
	ErrClusterNotFound = errors.New("redisc: cluster not found")

	// ErrEmptyPipeline is returned for a pipeline with no commands.
	ErrEmptyPipeline = errors.New("redisc: empty pipeline")

	// ErrEmptyCommand is returned for a command with no tokens.
	ErrEmptyCommand = errors.New("redisc: empty command")

	// ErrCrossSlot is logged (via the engine, see classify in engine.go)
	// when a pipeline's commands don't all hash to the same slot; it never
	// aborts the pipeline, since spec-wise CheckSameSlot is a sanity
	// warning only. Exported so callers doing their own CheckSameSlot
	// check have a matching sentinel to compare against.
	ErrCrossSlot = errors.New("redisc: pipeline keys do not hash to the same slot")

	// errAllNodesFailed is returned internally when a refresh could not
	// reach any known node.
	errAllNodesFailed = errors.New("redisc: all nodes failed")
)
