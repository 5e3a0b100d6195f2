package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loykin/streamdrain/cmd/streamdrain/sink/common"
	"github.com/loykin/streamdrain/internal/capture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSink_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink.Type = ""
	s, err := buildSink(cfg)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestBuildSink_Unsupported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink.Type = "syslog"
	_, err := buildSink(cfg)
	assert.Error(t, err)
}

func TestBuildSink_Console(t *testing.T) {
	cfg := DefaultConfig()
	s, err := buildSink(cfg)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Stop())
}

func TestSinkConfig_Hostname(t *testing.T) {
	assert.Equal(t, "builder-7", SinkConfig{Host: "builder-7"}.hostname())
	if h, err := os.Hostname(); err == nil {
		assert.Equal(t, h, SinkConfig{}.hostname())
	}
}

func TestForward_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	cfg := DefaultConfig()
	cfg.Sink.Type = "file"
	cfg.Sink.File.Path = path
	cfg.Sink.BatchSize = 2
	cfg.Sink.BatchInterval = 10 * time.Millisecond

	s, err := buildSink(cfg)
	require.NoError(t, err)

	forward(s, "run-1", &capture.Result{
		Stdout: []string{"alpha", "beta", "gamma"},
		Stderr: []string{"oops"},
	})
	require.NoError(t, s.Stop())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, []string{
		"run-1\tstdout\t0\talpha",
		"run-1\tstdout\t1\tbeta",
		"run-1\tstdout\t2\tgamma",
		"run-1\tstderr\t0\toops",
	}, lines)
}

func TestForward_StreamFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stderr-only.log")
	cfg := DefaultConfig()
	cfg.Sink.Type = "file"
	cfg.Sink.File.Path = path
	cfg.Sink.Streams = []string{"stderr"}

	s, err := buildSink(cfg)
	require.NoError(t, err)
	forward(s, "run-2", &capture.Result{Stdout: []string{"hidden"}, Stderr: []string{"shown"}})
	require.NoError(t, s.Stop())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "run-2\tstderr\t0\tshown\n", string(data))
}

func TestForward_NilSafe(t *testing.T) {
	forward(nil, "x", &capture.Result{Stdout: []string{"a"}})

	cfg := DefaultConfig()
	cfg.Sink.Type = "file"
	cfg.Sink.File.Path = filepath.Join(t.TempDir(), "never.log")
	s, err := buildSink(cfg)
	require.NoError(t, err)
	forward(s, "x", nil)
	require.NoError(t, s.Stop())
}

// memorySink keeps every enqueued record.
type memorySink struct {
	records []common.Record
}

func (m *memorySink) Enqueue(rec common.Record) { m.records = append(m.records, rec) }
func (m *memorySink) Stop() error               { return nil }

func TestForward_StampsRunStartTime(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	s := &memorySink{}
	forward(s, "run-3", &capture.Result{
		Stdout:    []string{"o1", "o2"},
		Stderr:    []string{"e1"},
		StartedAt: started,
	})

	require.Len(t, s.records, 3)
	for _, rec := range s.records {
		assert.Equal(t, started, rec.Time, "record %s/%d", rec.Stream, rec.Seq)
		assert.Equal(t, "run-3", rec.RunID)
	}
	assert.Equal(t, common.Record{RunID: "run-3", Stream: "stderr", Seq: 0, Line: "e1", Time: started}, s.records[2])
}
