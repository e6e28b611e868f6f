package redisc

import (
	"strconv"

	"github.com/gomodule/redigo/redis"
)

// connHandle is the opaque connection handle owned by a Cluster. It wraps
// a single, non-pooled redigo connection to one node; the Cluster is
// responsible for its lifetime, queries only ever borrow it by reference.
type connHandle struct {
	node string
	conn redis.Conn
}

// SlotRange is one entry of a CLUSTER SLOTS reply: every slot in
// [Start, End] is served by Master, with Replicas as read-only backups
// (ignored by the engine, see spec.md §9's read-from-replica non-goal).
type SlotRange struct {
	Start, End int
	Master     string
	Replicas   []string
}

// Result is the outcome of a single command: either Err is nil and Reply
// holds the server's reply, or Err holds the server's raw error string
// (e.g. "MOVED 1234 10.0.0.2:7000"), letting the classifier parse it.
type Result struct {
	Reply interface{}
	Err   error
}

// Transport is the narrow interface the query engine and Cluster State
// consume to talk to a single redis node. It is the "external
// collaborator" spec.md §1 calls out as out of scope for the core; this
// package supplies a default implementation on top of gomodule/redigo,
// but any Transport can be substituted (this package's own tests use an
// in-process fake, fakeTransport).
type Transport interface {
	// Open establishes a new connection to node ("host:port").
	Open(node string) (*connHandle, error)

	// SendOne executes a single command on conn.
	SendOne(conn *connHandle, cmd Command) Result

	// SendPipeline executes an ordered sequence of commands on conn in a
	// single round trip, returning one Result per command, in order. The
	// returned error is only set for a transport-level failure that
	// aborts the whole pipeline (e.g. a write error); once bytes are on
	// the wire, per-command server errors are reported through Result.Err.
	SendPipeline(conn *connHandle, cmds Pipeline) ([]Result, error)

	// ClusterSlots issues CLUSTER SLOTS on conn and parses the reply.
	ClusterSlots(conn *connHandle) ([]SlotRange, error)

	// Close closes conn.
	Close(conn *connHandle) error
}

// redigoTransport is the default Transport, backed by gomodule/redigo.
type redigoTransport struct {
	dialOptions []redis.DialOption
}

// NewRedigoTransport returns a Transport that dials plain (non-pooled)
// redigo connections, matching the DialOptions supplied.
func NewRedigoTransport(opts ...redis.DialOption) Transport {
	return &redigoTransport{dialOptions: opts}
}

func (t *redigoTransport) Open(node string) (*connHandle, error) {
	conn, err := redis.Dial("tcp", node, t.dialOptions...)
	if err != nil {
		return nil, err
	}
	return &connHandle{node: node, conn: conn}, nil
}

func (t *redigoTransport) Close(h *connHandle) error {
	return h.conn.Close()
}

func (t *redigoTransport) SendOne(h *connHandle, cmd Command) Result {
	name, args := splitCommand(cmd)
	reply, err := h.conn.Do(name, args...)
	return Result{Reply: reply, Err: err}
}

func (t *redigoTransport) SendPipeline(h *connHandle, cmds Pipeline) ([]Result, error) {
	for _, cmd := range cmds {
		name, args := splitCommand(cmd)
		if err := h.conn.Send(name, args...); err != nil {
			return nil, err
		}
	}
	if err := h.conn.Flush(); err != nil {
		return nil, err
	}

	results := make([]Result, len(cmds))
	for i := range cmds {
		v, err := h.conn.Receive()
		// redigo surfaces a server-side error reply (e.g. "MOVED ...") as
		// the err return of Receive; keep it as this command's Result so
		// the classifier can inspect it, instead of failing the whole
		// pipeline.
		results[i] = Result{Reply: v, Err: err}
	}
	return results, nil
}

func (t *redigoTransport) ClusterSlots(h *connHandle) ([]SlotRange, error) {
	vals, err := redis.Values(h.conn.Do("CLUSTER", "SLOTS"))
	if err != nil {
		return nil, err
	}

	ranges := make([]SlotRange, 0, len(vals))
	for len(vals) > 0 {
		var slotRange []interface{}
		vals, err = redis.Scan(vals, &slotRange)
		if err != nil {
			return nil, err
		}

		var start, end int
		nodes, err := redis.Scan(slotRange, &start, &end)
		if err != nil {
			return nil, err
		}

		sr := SlotRange{Start: start, End: end}
		for len(nodes) > 0 {
			var nodeData []interface{}
			nodes, err = redis.Scan(nodes, &nodeData)
			if err != nil {
				return nil, err
			}
			var addr string
			var port int
			if _, err = redis.Scan(nodeData, &addr, &port); err != nil {
				return nil, err
			}
			full := addr + ":" + strconv.Itoa(port)
			if sr.Master == "" {
				sr.Master = full
			} else {
				sr.Replicas = append(sr.Replicas, full)
			}
		}
		ranges = append(ranges, sr)
	}
	return ranges, nil
}

func splitCommand(cmd Command) (string, []interface{}) {
	if len(cmd) == 0 {
		return "", nil
	}
	name, _ := cmd[0].(string)
	return name, cmd[1:]
}
