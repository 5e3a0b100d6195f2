package main

import (
	"fmt"
	"os"

	"github.com/loykin/streamdrain/cmd/streamdrain/sink/clickhouse"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/console"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/file"
	"github.com/loykin/streamdrain/cmd/streamdrain/sink/opensearch"
	"github.com/loykin/streamdrain/internal/capture"
)

// Sink is the common sink interface from subpackages.
type Sink = common.Sink

func (c SinkConfig) filter() common.Filter {
	return common.Filter{Streams: c.Streams, Includes: c.Include, Excludes: c.Exclude}
}

func (c SinkConfig) hostname() string {
	if c.Host != "" {
		return c.Host
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return ""
}

// buildSink constructs and starts a sink based on Config. Returns nil when Sink is disabled.
func buildSink(cfg *Config) (Sink, error) {
	sc := cfg.Sink
	switch sc.Type {
	case "":
		return nil, nil
	case "console":
		return console.New(sc.Console, sc.BatchSize, sc.BatchInterval, sc.filter()), nil
	case "file":
		return file.New(sc.File, sc.BatchSize, sc.BatchInterval, sc.filter())
	case "clickhouse":
		return clickhouse.New(sc.ClickHouse, sc.hostname(), sc.Labels, sc.BatchSize, sc.BatchInterval, sc.filter())
	case "opensearch":
		return opensearch.New(sc.OpenSearch, sc.hostname(), sc.Labels, sc.BatchSize, sc.BatchInterval, sc.filter())
	default:
		return nil, fmt.Errorf("unsupported sink: %s", sc.Type)
	}
}

// forward hands every captured line to the sink, stdout first, in capture order.
// Lines are stamped with the run's start time; Seq orders them within a stream.
func forward(s Sink, runID string, res *capture.Result) {
	if s == nil || res == nil {
		return
	}
	for i, line := range res.Stdout {
		s.Enqueue(common.Record{RunID: runID, Stream: capture.StreamStdout, Seq: i, Line: line, Time: res.StartedAt})
	}
	for i, line := range res.Stderr {
		s.Enqueue(common.Record{RunID: runID, Stream: capture.StreamStderr, Seq: i, Line: line, Time: res.StartedAt})
	}
}
