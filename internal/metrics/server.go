package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps an HTTP server exposing Prometheus metrics.
// Nothing starts automatically; call Start and Stop.
type Server struct {
	server *http.Server
	addr   string
}

// Start listens on addr and serves the default Prometheus registry at /metrics.
func Start(addr string) (*Server, error) {
	return StartWithGatherer(addr, prometheus.DefaultGatherer)
}

// StartWithGatherer is like Start but serves the given gatherer. The listener is
// bound before returning so a bad address is reported to the caller.
func StartWithGatherer(addr string, g prometheus.Gatherer) (*Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", ln.Addr().String(), "error", err)
		}
	}()

	return &Server{server: srv, addr: ln.Addr().String()}, nil
}

// Addr reports the bound listen address (useful when started on port 0).
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Stop gracefully shuts down the metrics server with a timeout.
func (s *Server) Stop() error {
	if s == nil || s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
