// Package metrics counts what the CLI's sinks do with forwarded lines.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "streamdrain"
	subsystem = "sink"
)

func sinkCounter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func sinkHistogram(name, help string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, []string{"sink"})
}

var (
	// per captured stream, so stdout and stderr volume can be told apart
	enqueuedTotal = sinkCounter("enqueued_total",
		"Captured lines accepted by a sink buffer.", "sink", "stream")
	droppedTotal = sinkCounter("dropped_total",
		"Captured lines a sink did not forward, by reason (filtered, stopped).", "sink", "stream", "reason")

	flushTotal = sinkCounter("flush_total",
		"Non-empty batches handed to a sink backend.", "sink")
	flushFailuresTotal = sinkCounter("flush_failures_total",
		"Batches the backend rejected after retries.", "sink")
	batchSize = sinkHistogram("flush_batch_size",
		"Records per non-empty flush.", prometheus.ExponentialBuckets(1, 2, 11))
	flushDuration = sinkHistogram("flush_duration_seconds",
		"Wall time of one flush, retries included.", prometheus.DefBuckets)
)

// Register adds the sink metrics to r. Collectors r already holds are skipped.
func Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		enqueuedTotal, droppedTotal, flushTotal, flushFailuresTotal, batchSize, flushDuration,
	} {
		err := r.Register(c)
		var already prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &already) {
			return err
		}
	}
	return nil
}

func label(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// SinkEnqueued counts one line from stream buffered by sink.
func SinkEnqueued(sink, stream string) {
	enqueuedTotal.WithLabelValues(label(sink), label(stream)).Inc()
}

// SinkDropped counts one line from stream that sink discarded.
func SinkDropped(sink, stream, reason string) {
	droppedTotal.WithLabelValues(label(sink), label(stream), label(reason)).Inc()
}

// SinkFlushObserve records one flush. Empty batches only count toward
// duration and failures.
func SinkFlushObserve(sink string, size int, dur time.Duration, success bool) {
	sink = label(sink)
	flushDuration.WithLabelValues(sink).Observe(dur.Seconds())
	if size > 0 {
		flushTotal.WithLabelValues(sink).Inc()
		batchSize.WithLabelValues(sink).Observe(float64(size))
	}
	if !success {
		flushFailuresTotal.WithLabelValues(sink).Inc()
	}
}
