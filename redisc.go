package redisc

import "github.com/google/uuid"

// Q executes a single command against the named cluster, resolving its
// shard, following any MOVED/ASK redirections, and retrying transient
// errors up to the cluster's request TTL. The command's routing key is
// its first argument; a command with no arguments fails immediately
// with ErrInvalidClusterKey.
func Q(clusterName string, command Command) (interface{}, error) {
	c, ok := Lookup(clusterName)
	if !ok {
		return nil, ErrClusterNotFound
	}
	if len(command) == 0 {
		return nil, ErrEmptyCommand
	}

	key, ok := KeyOf(command)
	if !ok {
		return nil, ErrInvalidClusterKey
	}

	q := &query{
		cluster: c,
		id:      uuid.New(),
		cmds:    Pipeline{command},
		indices: []int{0},
		slot:    SlotOf(key),
	}

	out := dispatch(q)
	res := out[0].res
	return res.Reply, res.Err
}

// QP executes a pipeline against the named cluster: an ordered sequence
// of commands sent together, split and re-dispatched transparently on
// redirection, and reassembled in the caller's original order.
// The slot used for routing is derived from the first command's key.
func QP(clusterName string, pipeline Pipeline) ([]Result, error) {
	c, ok := Lookup(clusterName)
	if !ok {
		return nil, ErrClusterNotFound
	}
	if len(pipeline) == 0 {
		return nil, ErrEmptyPipeline
	}

	key, ok := KeyOf(pipeline[0])
	if !ok {
		return nil, ErrInvalidClusterKey
	}

	indices := make([]int, len(pipeline))
	for i := range pipeline {
		indices[i] = i
	}

	q := &query{
		cluster: c,
		id:      uuid.New(),
		cmds:    pipeline,
		indices: indices,
		slot:    SlotOf(key),
	}

	out := dispatch(q)
	results := make([]Result, len(pipeline))
	for _, ir := range out {
		results[ir.idx] = ir.res
	}
	return results, nil
}
