package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cmdmetrics "github.com/loykin/streamdrain/cmd/streamdrain/metrics"
	"github.com/loykin/streamdrain/internal/capture"
	"github.com/loykin/streamdrain/internal/store"
	"github.com/loykin/streamdrain/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// exitCodeFailure is returned when the command never produced an exit status.
const exitCodeFailure = 127

// runCommand runs argv under capture, forwards its output and records the run.
// It returns the exit code the streamdrain process should use.
func runCommand(ctx context.Context, cfg *Config, argv []string) (int, error) {
	if len(argv) == 0 {
		return exitCodeFailure, errors.New("no command given")
	}
	enc, err := cfg.Capture.resolveEncoding()
	if err != nil {
		return exitCodeFailure, err
	}

	var metricsStop = func() error { return nil }
	if cfg.Prometheus.Enable {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return exitCodeFailure, fmt.Errorf("failed to register prometheus metrics: %w", err)
		}
		if err := cmdmetrics.Register(prometheus.DefaultRegisterer); err != nil {
			return exitCodeFailure, fmt.Errorf("failed to register sink metrics: %w", err)
		}
		srv, err := metrics.Start(cfg.Prometheus.Addr)
		if err != nil {
			return exitCodeFailure, fmt.Errorf("failed to start prometheus endpoint: %w", err)
		}
		metricsStop = srv.Stop
	}
	defer func() { _ = metricsStop() }()

	var runs store.Store
	if cfg.Store.Enable {
		runs, err = store.NewSQLiteStore(cfg.Store.DBPath)
		if err != nil {
			return exitCodeFailure, fmt.Errorf("failed to open run store: %w", err)
		}
		defer func() { _ = runs.Close() }()
	}

	sink, err := buildSink(cfg)
	if err != nil {
		return exitCodeFailure, fmt.Errorf("error creating sink: %w", err)
	}

	if cfg.Capture.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Capture.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	slog.Debug("running command", "run_id", runID, "argv", argv)
	res, runErr := capture.Run(ctx, capture.Config{
		Path:     argv[0],
		Args:     argv[1:],
		Dir:      cfg.Capture.Dir,
		Encoding: enc,
		MaxLines: cfg.Capture.MaxLines,
	})

	forward(sink, runID, res)
	if sink != nil {
		if err := sink.Stop(); err != nil {
			slog.Error("failed to stop sink", "error", err)
		}
	}

	if res == nil {
		return exitCodeFailure, runErr
	}
	if runs != nil {
		id, err := runs.SaveRun(res)
		if err != nil {
			slog.Error("failed to store run", "run_id", runID, "error", err)
		} else {
			slog.Info("run stored", "run_id", runID, "id", id)
		}
	}

	slog.Info("command finished",
		"run_id", runID,
		"exit", res.ExitCode,
		"stdout_lines", len(res.Stdout),
		"stderr_lines", len(res.Stderr),
		"duration", res.Duration)

	code := res.ExitCode
	if code < 0 {
		code = exitCodeFailure
	}
	return code, runErr
}
