package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	c, err := cv.GetMetricWithLabelValues(labels...)
	require.NoError(t, err)
	return testutil.ToFloat64(c)
}

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestSinkMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	baseEnq := counterValue(t, enqueuedTotal, "unknown", "unknown")
	SinkEnqueued("", "")
	assert.Equal(t, 1.0, counterValue(t, enqueuedTotal, "unknown", "unknown")-baseEnq)

	baseOut := counterValue(t, enqueuedTotal, "console", "stdout")
	baseErr := counterValue(t, enqueuedTotal, "console", "stderr")
	SinkEnqueued("console", "stderr")
	SinkEnqueued("console", "stderr")
	SinkEnqueued("console", "stdout")
	assert.Equal(t, 1.0, counterValue(t, enqueuedTotal, "console", "stdout")-baseOut)
	assert.Equal(t, 2.0, counterValue(t, enqueuedTotal, "console", "stderr")-baseErr)

	baseDrop := counterValue(t, droppedTotal, "file", "stdout", "filtered")
	baseDropErr := counterValue(t, droppedTotal, "file", "stderr", "filtered")
	SinkDropped("file", "stdout", "filtered")
	SinkDropped("file", "stdout", "filtered")
	assert.Equal(t, 2.0, counterValue(t, droppedTotal, "file", "stdout", "filtered")-baseDrop)
	assert.Equal(t, 0.0, counterValue(t, droppedTotal, "file", "stderr", "filtered")-baseDropErr)

	baseFlush := counterValue(t, flushTotal, "console")
	baseFail := counterValue(t, flushFailuresTotal, "console")
	SinkFlushObserve("console", 3, 10*time.Millisecond, true)
	SinkFlushObserve("console", 0, time.Millisecond, false) // empty batch: duration and failure only
	assert.Equal(t, 1.0, counterValue(t, flushTotal, "console")-baseFlush)
	assert.Equal(t, 1.0, counterValue(t, flushFailuresTotal, "console")-baseFail)

	assert.Positive(t, testutil.CollectAndCount(batchSize, "streamdrain_sink_flush_batch_size"))
}
