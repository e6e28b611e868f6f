package redisc

import (
	"strconv"
	"strings"
)

// RedirError is a parsed MOVED or ASK error as returned by a redis
// cluster node. Type is either "MOVED" or "ASK".
type RedirError struct {
	Type    string
	NewSlot int
	Addr    string
}

func (e *RedirError) Error() string {
	return e.Type + " " + strconv.Itoa(e.NewSlot) + " " + e.Addr
}

// ParseRedir parses err as a MOVED or ASK error and returns the
// corresponding RedirError, or nil if err is not a redirection error.
func ParseRedir(err error) *RedirError {
	if err == nil {
		return nil
	}
	return parseRedirString(err.Error())
}

func parseRedirString(s string) *RedirError {
	var typ string
	switch {
	case strings.HasPrefix(s, "MOVED "):
		typ = "MOVED"
	case strings.HasPrefix(s, "ASK "):
		typ = "ASK"
	default:
		return nil
	}

	fields := strings.Fields(s)
	if len(fields) != 3 {
		return nil
	}

	slot, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil
	}

	return &RedirError{Type: typ, NewSlot: slot, Addr: fields[2]}
}

// IsCrossSlot returns true if err is a CROSSSLOT error, as returned by
// redis when a command's keys don't all hash to the same slot.
func IsCrossSlot(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "CROSSSLOT")
}

// IsTryAgain returns true if err is a TRYAGAIN error, as returned by
// redis while a slot is being migrated between two nodes.
func IsTryAgain(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "TRYAGAIN")
}
