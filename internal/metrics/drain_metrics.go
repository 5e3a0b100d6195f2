package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	linesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamdrain",
		Name:      "lines_total",
		Help:      "Total number of lines captured from drained streams.",
	}, []string{"stream"})
	bytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamdrain",
		Name:      "bytes_total",
		Help:      "Total number of bytes captured from drained streams (excludes line terminators).",
	}, []string{"stream"})
	readErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamdrain",
		Name:      "read_errors_total",
		Help:      "Total number of read failures that stopped a drain.",
	}, []string{"stream"})
	waitInterruptedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamdrain",
		Name:      "wait_interrupted_total",
		Help:      "Total number of content waits that ended before the drain completed.",
	}, []string{"stream"})
	droppedLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streamdrain",
		Name:      "dropped_lines_total",
		Help:      "Total number of lines evicted because a drainer reached its line limit.",
	}, []string{"stream"})
	activeDrainers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "streamdrain",
		Name:      "active_drainers",
		Help:      "Current number of drain loops still reading their stream.",
	})
	commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "streamdrain",
		Name:      "command_duration_seconds",
		Help:      "Wall time of captured commands, labelled by exit code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"exit"})
)

// Register registers all drain metrics to the provided Prometheus registerer.
// It is safe to call multiple times; AlreadyRegisteredError will be ignored.
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		linesTotal, bytesTotal, readErrorsTotal, waitInterruptedTotal,
		droppedLinesTotal, activeDrainers, commandDuration,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			var alreadyRegisteredError prometheus.AlreadyRegisteredError
			if errors.As(err, &alreadyRegisteredError) {
				continue
			}
			return err
		}
	}
	return nil
}

func streamLabel(stream string) string {
	if stream == "" {
		return "unknown"
	}
	return stream
}

// IncLines increments the captured lines counter by n.
func IncLines(stream string, n int) {
	if n > 0 {
		linesTotal.WithLabelValues(streamLabel(stream)).Add(float64(n))
	}
}

// AddBytes adds n to the captured bytes counter.
func AddBytes(stream string, n int) {
	if n > 0 {
		bytesTotal.WithLabelValues(streamLabel(stream)).Add(float64(n))
	}
}

func IncReadErrors(stream string) { readErrorsTotal.WithLabelValues(streamLabel(stream)).Inc() }

func IncWaitInterrupted(stream string) {
	waitInterruptedTotal.WithLabelValues(streamLabel(stream)).Inc()
}

func IncDroppedLines(stream string) { droppedLinesTotal.WithLabelValues(streamLabel(stream)).Inc() }

func IncActiveDrainers() { activeDrainers.Inc() }

func DecActiveDrainers() { activeDrainers.Dec() }

// ObserveCommand records how long a captured command ran. A negative exit code
// means the process never reported one (killed or failed to wait).
func ObserveCommand(exitCode int, d time.Duration) {
	commandDuration.WithLabelValues(strconv.Itoa(exitCode)).Observe(d.Seconds())
}
