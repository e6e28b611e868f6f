package redisc_test

import (
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/redisc"
	"github.com/mna/redisc/redistest"
)

func TestClusterIntegration(t *testing.T) {
	fn, ports := redistest.StartCluster(t, nil)
	defer fn()

	seeds := make([]string, len(ports))
	for i, p := range ports {
		seeds[i] = "127.0.0.1:" + p
	}

	name := t.Name()
	cluster, err := redisc.Start(name, seeds)
	require.NoError(t, err)
	defer cluster.Close()
	defer redisc.Forget(name)

	require.NoError(t, cluster.Refresh(cluster.Version()))

	_, err = redisc.Q(name, redisc.Command{"SET", "hello", "world"})
	require.NoError(t, err)

	v, err := redisc.Q(name, redisc.Command{"GET", "hello"})
	require.NoError(t, err)
	s, err := redis.String(v, nil)
	require.NoError(t, err)
	assert.Equal(t, "world", s)

	results, err := redisc.QP(name, redisc.Pipeline{
		{"SET", "{tag}a", "1"},
		{"SET", "{tag}b", "2"},
		{"GET", "{tag}a"},
		{"GET", "{tag}b"},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
	a, err := redis.String(results[2].Reply, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", a)
}
