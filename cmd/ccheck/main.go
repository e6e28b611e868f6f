// Command ccheck implements the consistency checker redis cluster client
// as described in http://redis.io/topics/cluster-tutorial. It is used
// to exercise the redisc package against real cluster failover and
// resharding situations: it repeatedly INCRs a working set of keys and
// reports any read that comes back lower than the last known write.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/mna/redisc"
)

var (
	addrFlag = flag.String("addr", "localhost:7000", "Redis server `address`.")

	connTimeoutFlag  = flag.Duration("c", time.Second, "Connection `timeout`.")
	delayFlag        = flag.Duration("d", 0, "Delay `duration` between INCR calls.")
	readTimeoutFlag  = flag.Duration("r", 100*time.Millisecond, "Read `timeout`.")
	writeTimeoutFlag = flag.Duration("w", 100*time.Millisecond, "Write `timeout`.")

	requestTTLFlag  = flag.Int("ttl", redisc.DefaultRequestTTL, "Maximum retries per command.")
	retryDelayFlag  = flag.Duration("retry-delay", redisc.DefaultRetryDelay, "Delay between retries.")
)

const (
	clusterName = "ccheck"

	workingSet = 1000
	keySpace   = 10000
)

var (
	mu sync.Mutex

	writes, reads             int
	failedWrites, failedReads int
	lostWrites, noAckWrites   int
)

func main() {
	flag.Parse()
	rand.Seed(time.Now().UnixNano())

	seeds := strings.Split(*addrFlag, ",")
	_, err := redisc.Start(clusterName, seeds,
		redisc.WithLogger(redisc.NewStdLogger()),
		redisc.WithRequestTTL(*requestTTLFlag),
		redisc.WithRetryDelay(*retryDelayFlag),
		redisc.WithDialOptions(
			redis.DialConnectTimeout(*connTimeoutFlag),
			redis.DialReadTimeout(*readTimeoutFlag),
			redis.DialWriteTimeout(*writeTimeoutFlag),
		),
	)
	if err != nil {
		log.Fatalf("failed to start cluster: %v", err)
	}

	errCh := make(chan error, 1)
	go printStats()
	go printErr(errCh)

	runChecks(errCh, *delayFlag)
}

func runChecks(errCh chan<- error, delay time.Duration) {
	cache := make(map[string]int, workingSet)
	for {
		var r, w, fr, fw, lw, naw int

		key := genKey()

		// read only if we know what that key should be
		if exp, ok := cache[key]; ok {
			reply, err := redisc.Q(clusterName, redisc.Command{"GET", key})
			if err != nil {
				select {
				case errCh <- fmt.Errorf("read from slot %d failed: %v", redisc.HashSlotForKey(key), err):
				default:
				}
				fr = 1
			} else {
				v, _ := redis.Int(reply, nil)
				r = 1
				if exp > v {
					lw = exp - v
				} else if exp < v {
					naw = v - exp
				}
			}
		}

		// write
		reply, err := redisc.Q(clusterName, redisc.Command{"INCR", key})
		if err != nil {
			select {
			case errCh <- fmt.Errorf("write to slot %d failed: %v", redisc.HashSlotForKey(key), err):
			default:
			}
			fw = 1
		} else {
			v, _ := redis.Int(reply, nil)
			w = 1
			cache[key] = v
		}

		updateStats(w, r, fw, fr, lw, naw)
		time.Sleep(delay)
	}
}

func updateStats(deltas ...int) {
	mu.Lock()
	writes += deltas[0]
	reads += deltas[1]
	failedWrites += deltas[2]
	failedReads += deltas[3]
	lostWrites += deltas[4]
	noAckWrites += deltas[5]
	mu.Unlock()
}

func printErr(errCh <-chan error) {
	for err := range errCh {
		fmt.Println(err)
		time.Sleep(time.Second)
	}
}

// each second, print stats
func printStats() {
	for range time.Tick(time.Second) {
		mu.Lock()
		w, r := writes, reads
		fw, fr := failedWrites, failedReads
		lw, naw := lostWrites, noAckWrites
		mu.Unlock()
		fmt.Printf("%d R (%d err) | %d W (%d err) | %d lost | %d noack\n", r, fr, w, fw, lw, naw)
	}
}

func genKey() string {
	ks := workingSet
	if rand.Float64() > 0.5 {
		ks = keySpace
	}
	return "key_" + strconv.Itoa(rand.Intn(ks))
}
