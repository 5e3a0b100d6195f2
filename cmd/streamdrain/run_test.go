package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loykin/streamdrain/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) (*Config, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "captured.log")
	cfg := DefaultConfig()
	cfg.Sink.Type = "file"
	cfg.Sink.File.Path = out
	cfg.Sink.BatchInterval = 10 * time.Millisecond
	require.NoError(t, cfg.Validate())
	return cfg, out
}

func TestRunCommand_ForwardsBothStreams(t *testing.T) {
	cfg, out := testConfig(t)

	code, err := runCommand(context.Background(), cfg, []string{"/bin/sh", "-c", "echo out1; echo err1 >&2; echo out2"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "\tstdout\t0\tout1\n")
	assert.Contains(t, text, "\tstdout\t1\tout2\n")
	assert.Contains(t, text, "\tstderr\t0\terr1\n")
	assert.Equal(t, 3, strings.Count(text, "\n"))
}

func TestRunCommand_PropagatesExitCode(t *testing.T) {
	cfg, _ := testConfig(t)

	code, err := runCommand(context.Background(), cfg, []string{"/bin/sh", "-c", "echo failing >&2; exit 5"})
	require.NoError(t, err)
	assert.Equal(t, 5, code)
}

func TestRunCommand_NoArgs(t *testing.T) {
	cfg, _ := testConfig(t)
	code, err := runCommand(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Equal(t, exitCodeFailure, code)
}

func TestRunCommand_MissingBinary(t *testing.T) {
	cfg, _ := testConfig(t)
	code, err := runCommand(context.Background(), cfg, []string{"/definitely/not/a/binary"})
	assert.Error(t, err)
	assert.Equal(t, exitCodeFailure, code)
}

func TestRunCommand_Timeout(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Capture.Timeout = 200 * time.Millisecond

	start := time.Now()
	code, err := runCommand(context.Background(), cfg, []string{"/bin/sh", "-c", "echo started; exec sleep 10"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEqual(t, 0, code)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunCommand_StoresRun(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Store.Enable = true
	cfg.Store.DBPath = filepath.Join(t.TempDir(), "runs.db")

	code, err := runCommand(context.Background(), cfg, []string{"/bin/sh", "-c", "echo stored; echo warn >&2"})
	require.NoError(t, err)
	require.Equal(t, 0, code)

	s, err := store.NewSQLiteStore(cfg.Store.DBPath)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	rec, ok, err := s.LoadRun(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"/bin/sh", "-c", "echo stored; echo warn >&2"}, rec.Command)
	assert.Equal(t, []string{"stored"}, rec.Stdout)
	assert.Equal(t, []string{"warn"}, rec.Stderr)
}

func TestRootCommand_EndToEnd(t *testing.T) {
	out := filepath.Join(t.TempDir(), "root.log")
	code := -1
	cmd := newRootCommand(DefaultConfig(), &code)
	cmd.SetArgs([]string{"--sink.type", "file", "--sink.file.path", out, "--log.level", "error", "/bin/sh", "-c", "echo via-cobra; exit 2"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, 2, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\tstdout\t0\tvia-cobra\n")
}
