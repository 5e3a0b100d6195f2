// Package streamdrain drains a child process's output streams in the
// background and hands back the captured lines once each stream ends.
//
// Consumers can just:
//
//	import "github.com/loykin/streamdrain"
//
//	d := streamdrain.New(stdoutPipe, "stdout")
//	d.Start()
//	lines := d.Content()
//
// or let Run manage the process and both streams.
package streamdrain

import (
	"context"
	"io"

	"github.com/loykin/streamdrain/internal/capture"
	"github.com/loykin/streamdrain/internal/drainer"
	"github.com/loykin/streamdrain/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Drainer re-exports drainer.Drainer for root-level usage.
type Drainer = drainer.Drainer

// Option configures a Drainer.
type Option = drainer.Option

// FailureFunc receives read failures and interrupted waits.
type FailureFunc = drainer.FailureFunc

var (
	ErrStreamRead      = drainer.ErrStreamRead
	ErrWaitInterrupted = drainer.ErrWaitInterrupted
)

var (
	WithFailureFunc = drainer.WithFailureFunc
	WithEncoding    = drainer.WithEncoding
	WithMaxLines    = drainer.WithMaxLines
)

// New constructs a Drainer for source labelled label. Call Start to begin draining.
func New(source io.Reader, label string, opts ...Option) *Drainer {
	return drainer.New(source, label, opts...)
}

// Config and Result re-export the process harness types.
type (
	Config = capture.Config
	Result = capture.Result
)

const (
	StreamStdout = capture.StreamStdout
	StreamStderr = capture.StreamStderr
)

// Run executes a command, draining stdout and stderr until it exits.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	return capture.Run(ctx, cfg)
}

// StartMetrics registers streamdrain metrics on the default Prometheus registry and starts an HTTP server.
// It returns a stop function to gracefully shut down the metrics server.
func StartMetrics(addr string) (func() error, error) {
	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, err
	}
	srv, err := metrics.Start(addr)
	if err != nil {
		return nil, err
	}
	return srv.Stop, nil
}
