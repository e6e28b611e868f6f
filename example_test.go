package redisc_test

import (
	"log"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/mna/redisc"
)

// Start a cluster and run commands against it.
func Example() {
	cluster, err := redisc.Start("example", []string{":7000", ":7001", ":7002"},
		redisc.WithDialOptions(redis.DialConnectTimeout(5*time.Second)),
	)
	if err != nil {
		log.Fatalf("Start failed: %v", err)
	}
	defer cluster.Close()

	if err := cluster.Refresh(cluster.Version()); err != nil {
		log.Fatalf("Refresh failed: %v", err)
	}

	v, err := redisc.Q("example", redisc.Command{"GET", "some-key"})
	if err != nil {
		log.Fatalf("GET failed: %v", err)
	}
	log.Println(v)

	if _, err := redisc.Q("example", redisc.Command{"SET", "some-key", 2}); err != nil {
		log.Fatalf("SET failed: %v", err)
	}
}

// Run several commands together and reassemble the results in order,
// even if the engine has to split the pipeline across nodes internally.
func ExampleQP() {
	if _, err := redisc.Start("example-qp", []string{":7000", ":7001", ":7002"}); err != nil {
		log.Fatalf("Start failed: %v", err)
	}

	results, err := redisc.QP("example-qp", redisc.Pipeline{
		{"GET", "foo"},
		{"GET", "bar"},
	})
	if err != nil {
		log.Fatalf("QP failed: %v", err)
	}
	for _, r := range results {
		if r.Err != nil {
			log.Printf("command failed: %v", r.Err)
			continue
		}
		log.Println(r.Reply)
	}
}
