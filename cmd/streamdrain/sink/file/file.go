package file

import (
	"bufio"
	"errors"
	"strconv"
	"time"

	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
	"gopkg.in/natefinch/lumberjack.v2"
)

const sinkName = "file"

// Sink appends "<run>\t<stream>\t<seq>\t<line>" records to a rotating file.
type Sink struct {
	batcher *common.Batcher
	out     *lumberjack.Logger
}

// New opens the rotating writer lazily (lumberjack creates the file on first
// write) and starts the sink.
func New(cfg Config, batchSize int, batchInterval time.Duration, f common.Filter) (common.Sink, error) {
	if cfg.Path == "" {
		return nil, errors.New("file sink requires a path")
	}
	s := &Sink{
		batcher: common.NewBatcher(sinkName, batchSize, batchInterval, f),
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
	}
	s.batcher.Start(s.flush)
	return s, nil
}

func (s *Sink) flush(batch []common.Record) error {
	w := bufio.NewWriter(s.out)
	for _, rec := range batch {
		_, _ = w.WriteString(format(rec))
	}
	return w.Flush()
}

func format(rec common.Record) string {
	run := rec.RunID
	if run == "" {
		run = "-"
	}
	return run + "\t" + rec.Stream + "\t" + strconv.Itoa(rec.Seq) + "\t" + rec.Line + "\n"
}

func (s *Sink) Enqueue(rec common.Record) { s.batcher.Enqueue(rec) }

func (s *Sink) Stop() error {
	s.batcher.Stop()
	return s.out.Close()
}
