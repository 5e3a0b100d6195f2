package common

import (
	"log/slog"
	"sync"
	"time"

	cmdmetrics "github.com/loykin/streamdrain/cmd/streamdrain/metrics"
)

// FlushFunc writes one batch to a backend. The slice is reused after it returns.
type FlushFunc func(batch []Record) error

// Batcher buffers records and hands them to a FlushFunc when the batch is
// full, when the interval ticks, and once more on Stop.
type Batcher struct {
	name     string
	ch       chan Record
	size     int
	interval time.Duration
	filter   Filter

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewBatcher(name string, size int, interval time.Duration, f Filter) *Batcher {
	if size < 1 {
		size = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Batcher{
		name:     name,
		ch:       make(chan Record, size*2),
		size:     size,
		interval: interval,
		filter:   f,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the flush loop on its own goroutine.
func (b *Batcher) Start(flush FlushFunc) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		buf := make([]Record, 0, b.size)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		emit := func() {
			if len(buf) == 0 {
				return
			}
			start := time.Now()
			err := flush(buf)
			if err != nil {
				slog.Error("sink flush failed", "sink", b.name, "records", len(buf), "error", err)
			}
			cmdmetrics.SinkFlushObserve(b.name, len(buf), time.Since(start), err == nil)
			buf = buf[:0]
		}

		for {
			select {
			case <-b.stopCh:
				// drain what Enqueue already handed over
				for {
					select {
					case rec := <-b.ch:
						buf = append(buf, rec)
						if len(buf) >= b.size {
							emit()
						}
					default:
						emit()
						return
					}
				}
			case <-ticker.C:
				emit()
			case rec := <-b.ch:
				buf = append(buf, rec)
				if len(buf) >= b.size {
					emit()
				}
			}
		}
	}()
}

// Enqueue filters rec and blocks until it is buffered. Records enqueued
// after Stop are dropped.
func (b *Batcher) Enqueue(rec Record) {
	if !b.filter.Allow(rec) {
		cmdmetrics.SinkDropped(b.name, rec.Stream, "filtered")
		return
	}
	select {
	case <-b.stopCh:
		cmdmetrics.SinkDropped(b.name, rec.Stream, "stopped")
		return
	default:
	}
	select {
	case b.ch <- rec:
		cmdmetrics.SinkEnqueued(b.name, rec.Stream)
	case <-b.stopCh:
		cmdmetrics.SinkDropped(b.name, rec.Stream, "stopped")
	}
}

// Stop flushes the remaining records and waits for the loop to exit.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()
}
