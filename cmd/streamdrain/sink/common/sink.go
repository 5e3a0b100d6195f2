package common

import "time"

// Record is one captured line on its way to a sink.
type Record struct {
	RunID  string
	Stream string // stdout or stderr
	Seq    int    // position within its stream, starting at 0
	Line   string
	Time   time.Time
}

// Sink specifies the minimal interface for a line-forwarding backend.
type Sink interface {
	// Enqueue blocks until the record is buffered or the sink is stopped.
	Enqueue(rec Record)
	// Stop flushes what is buffered and releases the backend.
	Stop() error
}
