package redisc

import "sync"

// fakeTransport is an in-process Transport double used by engine and
// state tests to control exactly what a node replies without spinning
// up a mock RESP server. Each node's behavior is scripted independently
// via replies/sequences keyed by node address.
type fakeTransport struct {
	mu sync.Mutex

	// slots is returned by ClusterSlots for any node, unless slotsErr is set.
	slots    []SlotRange
	slotsErr error

	// forNode, keyed by "node|command", holds the queue of Results to
	// return in order; each call pops the front. A missing key defaults
	// to Result{Reply: "OK"}.
	forNode map[string][]Result

	opened []string
	closed []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{forNode: make(map[string][]Result)}
}

func (f *fakeTransport) script(node, command string, results ...Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forNode[node+"|"+command] = append(f.forNode[node+"|"+command], results...)
}

func (f *fakeTransport) Open(node string) (*connHandle, error) {
	f.mu.Lock()
	f.opened = append(f.opened, node)
	f.mu.Unlock()
	return &connHandle{node: node}, nil
}

func (f *fakeTransport) Close(h *connHandle) error {
	f.mu.Lock()
	f.closed = append(f.closed, h.node)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) SendOne(h *connHandle, cmd Command) Result {
	name, _ := cmd[0].(string)
	f.mu.Lock()
	defer f.mu.Unlock()

	key := h.node + "|" + name
	q := f.forNode[key]
	if len(q) == 0 {
		return Result{Reply: "OK"}
	}
	f.forNode[key] = q[1:]
	return q[0]
}

func (f *fakeTransport) SendPipeline(h *connHandle, cmds Pipeline) ([]Result, error) {
	out := make([]Result, len(cmds))
	for i, cmd := range cmds {
		out[i] = f.SendOne(h, cmd)
	}
	return out, nil
}

func (f *fakeTransport) ClusterSlots(h *connHandle) ([]SlotRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.slotsErr != nil {
		return nil, f.slotsErr
	}
	return f.slots, nil
}
