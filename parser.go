package redisc

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/howeyc/crc16"
)

// hashSlots is the number of hash slots a redis cluster is partitioned
// into (http://redis.io/topics/cluster-spec).
const hashSlots = 16384

// crc16Table is the CRC-16/XMODEM table redis's cluster hashing uses:
// polynomial 0x1021, initial value 0, no input or output reflection.
// crc16.MakeTable builds a reflected, Kermit-family table from an
// already bit-reversed polynomial (its CCITT constant 0x8408 is 0x1021
// reversed) — it cannot produce XMODEM. MakeBitsReversedTable builds
// the non-reflected table from the polynomial as written, which is
// exactly what CCITTFalseTable is defined as; fed through Update with
// an initial value of 0 it reproduces redis's slot hashing.
var crc16Table = crc16.MakeBitsReversedTable(0x1021)

// Command is a single redis command: a command name followed by its
// arguments. Arguments are formatted the way redigo formats them (see
// redis.Args), so ints, strings, []byte, etc. are all valid elements.
type Command []interface{}

// Pipeline is an ordered sequence of commands submitted together and
// whose results must come back in the same order, regardless of how the
// engine splits and re-dispatches them internally.
type Pipeline []Command

// KeyOf returns the routing key for cmd: its first argument, formatted
// as bytes. It returns ok=false for a command with no arguments (e.g.
// PING, INFO), which the caller must treat as ErrInvalidClusterKey.
func KeyOf(cmd Command) (key []byte, ok bool) {
	if len(cmd) < 2 {
		return nil, false
	}
	return toBytes(cmd[1]), true
}

// SlotOf returns the hash slot in [0, hashSlots) for key, honoring the
// {...} hash-tag convention: when key contains a non-empty {...}
// substring, only the bytes between the first '{' and the following '}'
// are hashed.
func SlotOf(key []byte) int {
	k := key
	if start := bytes.IndexByte(k, '{'); start >= 0 {
		if end := bytes.IndexByte(k[start+1:], '}'); end > 0 {
			k = k[start+1 : start+1+end]
		}
	}
	return int(crc16.Update(0, crc16Table, k)) % hashSlots
}

// HashSlotForKey is a convenience wrapper of SlotOf for string keys, kept
// for parity with the tools in cmd/redisc-cli (--hash) and ccheck.
func HashSlotForKey(key string) int {
	return SlotOf([]byte(key))
}

// CheckSameSlot reports whether every command in p hashes to the same
// slot. It never blocks execution (spec: it is a sanity warning only);
// callers may still choose to treat a false result as an error.
func CheckSameSlot(p Pipeline) (ok bool, slot int) {
	slot = -1
	for _, cmd := range p {
		key, has := KeyOf(cmd)
		if !has {
			continue
		}
		s := SlotOf(key)
		if slot == -1 {
			slot = s
			continue
		}
		if s != slot {
			return false, slot
		}
	}
	return true, slot
}

// toBytes formats v as the wire form redigo's redis.Args would send it
// as, so a non-string routing key (an int primary key, say) hashes to
// the digits redis itself would see instead of silently hashing the
// empty string.
func toBytes(v interface{}) []byte {
	switch v := v.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	case int:
		return strconv.AppendInt(nil, int64(v), 10)
	case int64:
		return strconv.AppendInt(nil, v, 10)
	case bool:
		if v {
			return []byte("1")
		}
		return []byte("0")
	case nil:
		return nil
	default:
		return []byte(fmt.Sprint(v))
	}
}
