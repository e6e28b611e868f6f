// Package redisc implements a redis cluster client on top of the redigo
// client package. It supports the commands that can be executed on a
// redis cluster, transparently following MOVED and ASK redirections and
// retrying transient errors. See http://redis.io/topics/cluster-spec for
// details of the protocol.
//
// Cluster
//
// A named cluster is created with Start, which seeds it with one or
// more "host:port" addresses and returns a *Cluster. Starting a cluster
// with an already-used name returns the existing Cluster and ignores
// the new options; a process is expected to Start each cluster it needs
// once, typically at init time, and reach it afterwards through Lookup
// or through the package-level Q and QP functions by name.
//
// The Cluster discovers the slot-to-node mapping with CLUSTER SLOTS and
// keeps it up to date automatically: a MOVED reply triggers an
// asynchronous refresh, and concurrent refreshes for the same map
// version coalesce onto a single round trip. Callers need not drive a
// refresh themselves; Cluster.Refresh is exported for those that want
// to populate the slot map up front.
//
// Queries
//
//     val, err := redisc.Q("mycluster", redisc.Command{"GET", "foo"})
//
//     results, err := redisc.QP("mycluster", redisc.Pipeline{
//         {"GET", "foo"},
//         {"GET", "{foo}bar"},
//     })
//
// Q executes a single command and returns its reply. QP executes a
// pipeline of commands in one round trip and returns one Result per
// command, in the caller's original order, regardless of how the engine
// internally splits and re-dispatches the pipeline in response to
// redirections. Both derive the routing slot from the first command's
// (or first pipeline command's) first argument; a command with no
// arguments has no routable key and fails with ErrInvalidClusterKey.
//
// Redirections
//
// MOVED and ASK errors are handled internally: the engine re-resolves
// the connection named by the error and retries the command there,
// without the caller ever observing the redirection. A MOVED error also
// schedules a background refresh of the whole slot map, since it
// usually indicates a completed slot migration or cluster resize; an ASK
// error does not, since it names a temporary single-slot destination
// for an in-progress migration and is preceded by an ASKING command on
// the retry, per the cluster spec.
//
// Retries are bounded by a per-cluster request TTL (see WithRequestTTL)
// and spaced by a fixed retry delay (see WithRetryDelay), to keep a
// redirection storm or a partitioned node from spinning a caller
// forever. Once the TTL is exhausted, the most recent error observed
// for that command is returned, or ErrTTLExhausted if none was ever
// recorded.
package redisc
