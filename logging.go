package redisc

import "log"

// Logger is the logging interface used by Cluster and the query engine.
// It matches the shape of the standard library's log.Printf so that
// *log.Logger satisfies it directly.
type Logger interface {
	// Printf logs a message. Arguments are handled in the manner of
	// fmt.Printf.
	Printf(format string, args ...interface{})
}

type stdLogger struct{}

// NewStdLogger returns a Logger that writes to the standard library's
// default logger.
func NewStdLogger() Logger { return &stdLogger{} }

func (l *stdLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

type nilLogger struct{}

// NewNilLogger returns a Logger that discards everything. It is the
// default used by a Cluster that isn't given an explicit Logger.
func NewNilLogger() Logger { return &nilLogger{} }

func (l *nilLogger) Printf(format string, args ...interface{}) {}
