package redisc

import (
	"sync"

	"github.com/bradhe/stopwatch"
	"github.com/google/uuid"
)

// query is the request-scoped, mutable record threaded through the
// engine, matching spec.md §3. A fresh query is created for a top-level
// Q/QP call; recursive retries mutate a shallow copy of it rather than
// the original, so concurrent branches of a split pipeline never share
// state.
type query struct {
	cluster *Cluster
	id      uuid.UUID

	// cmds is normally a single command. It becomes a two-element
	// pipeline ([ASKING, original]) when this sub-query was promoted
	// from an ASK redirection (asking=true) — the tag spec.md §9 asks
	// implementations to carry explicitly, instead of sniffing the
	// reply structure.
	cmds    Pipeline
	asking  bool
	indices []int // caller-visible positions this query still owns

	slot            int
	conn            *connHandle
	versionObserved uint64
	retries         int

	// lastResult is the most recently observed outcome for this
	// (sub-)query; returned verbatim if the request TTL is exhausted.
	lastResult Result
}

func (q *query) realCommand() Command {
	return q.cmds[len(q.cmds)-1]
}

// clone returns a shallow copy of q suitable for mutating into a retry
// branch, so the original q (and any sibling branch derived from it)
// is left untouched.
func (q *query) clone() *query {
	cp := *q
	return &cp
}

type indexedResult struct {
	idx int
	res Result
}

// dispatch drives q through its full lifecycle (spec.md §4.4) and
// returns one Result per caller-visible index q started with.
func dispatch(q *query) []indexedResult {
	return resolve(q)
}

// resolve implements "Entry (by slot)": look up the connection for
// q.slot, blocking on a refresh and retrying on a miss, then hand off to
// execute once a connection is known. It is the entry point for a fresh
// top-level query; retries produced by classifyOne already know their
// connection and re-enter directly at execute instead.
//
// The refresh on a miss is synchronous, not fire-and-forget: a freshly
// Start-ed cluster has an empty slot map, and firing the refresh in the
// background while spinning retries with no delay would exhaust the
// request TTL in microseconds, long before the CLUSTER SLOTS round trip
// it triggered ever completes.
//
// The recorded outcome for a miss is always ErrNoConnection, per
// "set response = {error, no_connection}": if Refresh itself fails
// (e.g. every seed is down), that's logged, not surfaced as
// lastResult, so a caller who exhausts the TTL on an unreachable
// cluster still observes no_connection rather than the refresh's
// internal error.
func resolve(q *query) []indexedResult {
	if q.retries >= q.cluster.requestTTL {
		return exhausted(q)
	}

	conn, version, ok := q.cluster.GetConnectionBySlot(q.slot)
	if !ok {
		q.versionObserved = version
		if err := q.cluster.Refresh(version); err != nil {
			q.cluster.logger.Printf("redisc: query %s: refresh on miss failed: %v", q.id, err)
		}
		q.lastResult = Result{Err: ErrNoConnection}
		q.retries++
		return resolve(q)
	}

	q.conn = conn
	q.versionObserved = version
	return execute(q)
}

// execute implements "Execute": dispatch the (sub-)command(s) over the
// transport, classify the outcome, and recurse into any redirected or
// transiently-failed branches concurrently, merging results by index.
func execute(q *query) []indexedResult {
	if q.retries >= q.cluster.requestTTL {
		return exhausted(q)
	}

	if q.retries > 0 {
		<-q.cluster.clock.After(q.cluster.retryDelay)
	}

	sw := stopwatch.Start()
	raw := send(q)
	elapsed := sw.Stop().Milliseconds()
	q.cluster.logger.Printf("redisc: query %s attempt %d against %s took %vms",
		q.id, q.retries, q.conn.node, elapsed)

	successes, retries := classify(q, raw)
	out := successes

	if len(retries) == 0 {
		return out
	}

	// Sub-queries redirected to different nodes are independent; resolve
	// them concurrently instead of serializing behind each other. Each rq
	// already carries the connection classifyOne resolved for it (or, for
	// a routing-neutral retry, the connection it just failed on), so
	// re-entry goes straight to execute rather than back through the
	// slot map — which may not reflect the redirection until the async
	// refresh it triggered completes.
	branches := make(chan []indexedResult, len(retries))
	var wg sync.WaitGroup
	for _, rq := range retries {
		wg.Add(1)
		go func(rq *query) {
			defer wg.Done()
			branches <- execute(rq)
		}(rq)
	}
	wg.Wait()
	close(branches)

	for br := range branches {
		out = append(out, br...)
	}
	return out
}

func send(q *query) []Result {
	if len(q.cmds) == 1 {
		return []Result{q.cluster.transport.SendOne(q.conn, q.cmds[0])}
	}

	results, err := q.cluster.transport.SendPipeline(q.conn, q.cmds)
	if err != nil {
		results = make([]Result, len(q.cmds))
		for i := range results {
			results[i] = Result{Err: err}
		}
	}
	return results
}

func exhausted(q *query) []indexedResult {
	last := q.lastResult
	if last.Err == nil && last.Reply == nil {
		last = Result{Err: ErrTTLExhausted}
	}
	out := make([]indexedResult, len(q.indices))
	for i, idx := range q.indices {
		out[i] = indexedResult{idx: idx, res: last}
	}
	return out
}

// classify implements the Classifier (spec.md §4.4): it splits a
// still-unsplit pipeline response into per-index outcomes, then applies
// classifyOne to each. successes are terminal (ok or unretryable error);
// retries are sub-queries ready to re-enter the engine.
func classify(q *query, raw []Result) (successes []indexedResult, retries []*query) {
	if len(q.indices) > 1 {
		if ok, _ := CheckSameSlot(q.cmds); !ok {
			q.cluster.logger.Printf("redisc: query %s: %v", q.id, ErrCrossSlot)
		}

		for i, idx := range q.indices {
			sub := &query{
				cluster:         q.cluster,
				id:              q.id,
				cmds:            Pipeline{q.cmds[i]},
				indices:         []int{idx},
				slot:            q.slot,
				conn:            q.conn,
				versionObserved: q.versionObserved,
				retries:         q.retries,
			}
			s, r := classifyOne(sub, raw[i])
			if s != nil {
				successes = append(successes, indexedResult{idx: idx, res: *s})
			}
			if r != nil {
				retries = append(retries, r)
			}
		}
		return successes, retries
	}

	// Singleton query: the "real" result is always the last element —
	// when asking is set, raw[0] is the synthetic ASKING acknowledgement
	// and is discarded here, which is how the caller never observes it.
	result := raw[len(raw)-1]
	s, r := classifyOne(q, result)
	if s != nil {
		successes = append(successes, indexedResult{idx: q.indices[0], res: *s})
	}
	if r != nil {
		retries = append(retries, r)
	}
	return successes, retries
}

// classifyOne classifies a single sub-query's result: non-nil, nil means
// terminal success/error; nil, non-nil means "retry me".
func classifyOne(q *query, result Result) (terminal *Result, retry *query) {
	if result.Err == nil {
		return &result, nil
	}

	if re := ParseRedir(result.Err); re != nil {
		conn, err := q.cluster.GetOrOpenConnection(re.Addr)
		if err != nil {
			term := Result{Err: result.Err}
			return &term, nil
		}

		nq := q.clone()
		nq.conn = conn
		nq.slot = re.NewSlot
		nq.retries = q.retries + 1
		nq.lastResult = result

		if re.Type == "MOVED" {
			q.cluster.refreshAsync(q.versionObserved)
			nq.cmds = Pipeline{q.realCommand()}
			nq.asking = false
		} else {
			nq.cmds = Pipeline{Command{"ASKING"}, q.realCommand()}
			nq.asking = true
		}
		return nil, nq
	}

	// Any other server or transport error: conservative catch-all retry,
	// no routing change (TRYAGAIN, CLUSTERDOWN, closed connections, ...).
	// TRYAGAIN and CROSSSLOT are singled out for logging only: neither
	// changes how the retry is built, but both are useful signal when
	// diagnosing a slow migration or a misrouted pipeline.
	if IsTryAgain(result.Err) {
		q.cluster.logger.Printf("redisc: query %s: %v, retrying in place", q.id, result.Err)
	} else if IsCrossSlot(result.Err) {
		q.cluster.logger.Printf("redisc: query %s: %v", q.id, result.Err)
	}

	nq := q.clone()
	nq.retries = q.retries + 1
	nq.lastResult = result
	return nil, nq
}
