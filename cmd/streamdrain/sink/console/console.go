package console

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
)

const sinkName = "console"

// Sink writes captured lines to the terminal.
type Sink struct {
	batcher *common.Batcher
	stdout  io.Writer
	stderr  io.Writer
	cfg     Config
}

// New returns a started console sink writing to the process's stdout/stderr.
func New(cfg Config, batchSize int, batchInterval time.Duration, f common.Filter) common.Sink {
	return newSink(cfg, os.Stdout, os.Stderr, batchSize, batchInterval, f)
}

func newSink(cfg Config, stdout, stderr io.Writer, batchSize int, batchInterval time.Duration, f common.Filter) *Sink {
	s := &Sink{
		batcher: common.NewBatcher(sinkName, batchSize, batchInterval, f),
		stdout:  stdout,
		stderr:  stderr,
		cfg:     cfg,
	}
	s.batcher.Start(s.flush)
	return s
}

func (s *Sink) toStderr(stream string) bool {
	switch s.cfg.Stream {
	case StreamStdout:
		return false
	case StreamStderr:
		return true
	}
	return stream == StreamStderr
}

func (s *Sink) flush(batch []common.Record) error {
	out := bufio.NewWriter(s.stdout)
	errOut := bufio.NewWriter(s.stderr)
	for _, rec := range batch {
		w := out
		if s.toStderr(rec.Stream) {
			w = errOut
		}
		if s.cfg.Prefix {
			_, _ = w.WriteString(rec.Stream + ": ")
		}
		_, _ = w.WriteString(rec.Line)
		_ = w.WriteByte('\n')
	}
	if err := out.Flush(); err != nil {
		return err
	}
	return errOut.Flush()
}

func (s *Sink) Enqueue(rec common.Record) { s.batcher.Enqueue(rec) }

func (s *Sink) Stop() error {
	s.batcher.Stop()
	return nil
}
