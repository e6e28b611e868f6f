package redisc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotOf(t *testing.T) {
	cases := []struct {
		key  string
		slot int
	}{
		{"", 0},
		{"a", 15495},
		{"b", 3300},
		{"ab", 13567},
		{"abc", 7638},
		{"a{b}", 3300},
		{"{a}b", 15495},
		{"{a}{b}", 15495},
		{"{}{a}{b}", 11267},
		{"a{b}c", 3300},
		{"{a}bc", 15495},
		{"{a}{b}{c}", 15495},
		{"{}{a}{b}{c}", 1044},
		{"a{bc}d", 12685},
		{"a{bcd}", 1872},
		{"{abcd}", 10294},
		{"abcd", 10294},
		{"{a", 10276},
		{"a}", 5921},
		{"123456789", 12739},
		{"a≠b", 11870},
		{"•", 97},
		{"a{}{b}c", 14872},
	}

	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			got := HashSlotForKey(c.key)
			assert.Equal(t, c.slot, got, "slot for %q", c.key)
		})
	}
}

func TestKeyOf(t *testing.T) {
	key, ok := KeyOf(Command{"GET", "foo"})
	assert.True(t, ok)
	assert.Equal(t, []byte("foo"), key)

	_, ok = KeyOf(Command{"PING"})
	assert.False(t, ok, "command with no arguments has no routable key")

	key, ok = KeyOf(Command{"SET", []byte("bar"), "1"})
	assert.True(t, ok)
	assert.Equal(t, []byte("bar"), key)

	key, ok = KeyOf(Command{"GET", 42})
	assert.True(t, ok)
	assert.Equal(t, []byte("42"), key, "a non-string key must format to its own digits, not the empty string")
}

func TestCheckSameSlot(t *testing.T) {
	ok, slot := CheckSameSlot(Pipeline{
		{"GET", "foo"},
		{"GET", "{foo}bar"},
	})
	assert.True(t, ok)
	assert.Equal(t, HashSlotForKey("foo"), slot)

	ok, _ = CheckSameSlot(Pipeline{
		{"GET", "foo"},
		{"GET", "bar"},
	})
	assert.False(t, ok)

	ok, slot = CheckSameSlot(Pipeline{{"PING"}})
	assert.True(t, ok, "no keys at all trivially agrees")
	assert.Equal(t, -1, slot)
}
