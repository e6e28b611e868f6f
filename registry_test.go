package redisc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartIsIdempotentPerName(t *testing.T) {
	defer Forget(t.Name())

	c1, err := Start(t.Name(), []string{"127.0.0.1:7000"})
	require.NoError(t, err)

	c2, err := Start(t.Name(), []string{"127.0.0.1:9999"}, WithRequestTTL(1))
	require.NoError(t, err)

	assert.Same(t, c1, c2, "second Start for the same name must return the first cluster")
	assert.Equal(t, DefaultRequestTTL, c1.requestTTL, "options from the ignored second Start must not apply")
}

func TestLookupUnknownCluster(t *testing.T) {
	_, ok := Lookup("does-not-exist")
	assert.False(t, ok)
}

func TestForgetRemovesFromRegistry(t *testing.T) {
	name := t.Name()
	_, err := Start(name, []string{"127.0.0.1:7000"})
	require.NoError(t, err)

	Forget(name)
	_, ok := Lookup(name)
	assert.False(t, ok)
}
