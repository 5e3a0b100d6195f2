package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/loykin/streamdrain/internal/drainer"
	"github.com/loykin/streamdrain/internal/metrics"
)

const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// waitDelay is how long a cancelled run waits for its pipes to close before
// giving up on them.
const waitDelay = 500 * time.Millisecond

// Result is everything captured from one finished command.
type Result struct {
	Command   []string
	Stdout    []string
	Stderr    []string
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool { return r != nil && r.ExitCode == 0 }

// Run starts the command, drains stdout and stderr concurrently and waits for
// it to exit. A non-zero exit status is reported in Result, not as an error.
// Cancelling ctx kills the process group; the partial Result is returned
// together with ctx's error, even when a descendant keeps the pipes open.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, cfg.Path, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Env
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("getting stdout for %q: %w", cfg.Path, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("getting stderr for %q: %w", cfg.Path, err)
	}

	res := &Result{
		Command:   append([]string{cfg.Path}, cfg.Args...),
		ExitCode:  -1,
		StartedAt: time.Now(),
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %q: %w", cfg.Path, err)
	}
	slog.Debug("command started", "path", cfg.Path, "pid", cmd.Process.Pid)

	opts := cfg.drainerOptions()
	outDrainer := drainer.New(stdout, StreamStdout, opts...)
	errDrainer := drainer.New(stderr, StreamStderr, opts...)
	outDrainer.Start()
	errDrainer.Start()

	// Wait closes the pipes, so both drains must reach EOF first.
	res.Stdout = collect(ctx, outDrainer)
	res.Stderr = collect(ctx, errDrainer)
	waitErr := cmd.Wait()
	res.Duration = time.Since(res.StartedAt)

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.ExitCode = 0
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case ctx.Err() == nil:
		metrics.ObserveCommand(res.ExitCode, res.Duration)
		return res, fmt.Errorf("waiting for %q: %w", cfg.Path, waitErr)
	}
	metrics.ObserveCommand(res.ExitCode, res.Duration)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("command %q interrupted: %w", cfg.Path, ctxErr)
	}

	slog.Debug("command finished",
		"path", cfg.Path,
		"exit", res.ExitCode,
		"stdout_lines", len(res.Stdout),
		"stderr_lines", len(res.Stderr),
		"duration", res.Duration)
	return res, nil
}

// collect returns the drained lines. Once ctx is done the drain gets waitDelay
// to finish before the lines read so far are taken.
func collect(ctx context.Context, d *drainer.Drainer) []string {
	select {
	case <-d.Done():
		return d.Content()
	case <-ctx.Done():
	}
	grace, cancel := context.WithTimeout(context.Background(), waitDelay)
	defer cancel()
	return d.ContentContext(grace)
}
