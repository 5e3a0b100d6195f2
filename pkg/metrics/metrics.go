// Package metrics is the public entry point to streamdrain's Prometheus
// metrics. Nothing is registered or served until the caller asks for it.
package metrics

import (
	imetrics "github.com/loykin/streamdrain/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Server serves /metrics and /healthz until Stop is called.
type Server = imetrics.Server

// Register adds the drain metrics (lines, bytes, read errors, interrupted
// waits, dropped lines, active drainers, command durations) to r.
func Register(r prometheus.Registerer) error { return imetrics.Register(r) }

// Start serves the default Prometheus registry on addr.
func Start(addr string) (*Server, error) { return imetrics.Start(addr) }

// StartWithGatherer serves g on addr.
func StartWithGatherer(addr string, g prometheus.Gatherer) (*Server, error) {
	return imetrics.StartWithGatherer(addr, g)
}
