package redisc

import (
	"io"
	"testing"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
)

func TestParseRedir(t *testing.T) {
	cases := []struct {
		msg  string
		want *RedirError
	}{
		{"MOVED 1234 10.0.0.2:7000", &RedirError{Type: "MOVED", NewSlot: 1234, Addr: "10.0.0.2:7000"}},
		{"ASK 1234 10.0.0.2:7000", &RedirError{Type: "ASK", NewSlot: 1234, Addr: "10.0.0.2:7000"}},
		{"CROSSSLOT Keys in request don't hash to the same slot", nil},
		{"TRYAGAIN some message", nil},
		{"ERR some error", nil},
		{"MOVED garbage 10.0.0.2:7000", nil},
		{"MOVED 1234", nil},
	}

	for _, c := range cases {
		t.Run(c.msg, func(t *testing.T) {
			got := ParseRedir(redis.Error(c.msg))
			assert.Equal(t, c.want, got)
		})
	}

	assert.Nil(t, ParseRedir(nil))
}

func TestRedirErrorString(t *testing.T) {
	re := &RedirError{Type: "MOVED", NewSlot: 1234, Addr: "10.0.0.2:7000"}
	assert.Equal(t, "MOVED 1234 10.0.0.2:7000", re.Error())
}

func TestIsRedisError(t *testing.T) {
	err := error(redis.Error("CROSSSLOT some message"))
	assert.True(t, IsCrossSlot(err), "CrossSlot")
	assert.False(t, IsTryAgain(err), "CrossSlot")
	err = redis.Error("TRYAGAIN some message")
	assert.False(t, IsCrossSlot(err), "TryAgain")
	assert.True(t, IsTryAgain(err), "TryAgain")
	err = io.EOF
	assert.False(t, IsCrossSlot(err), "EOF")
	assert.False(t, IsTryAgain(err), "EOF")
	err = redis.Error("ERR some error")
	assert.False(t, IsCrossSlot(err), "ERR")
	assert.False(t, IsTryAgain(err), "ERR")
}
