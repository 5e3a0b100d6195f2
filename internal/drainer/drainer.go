package drainer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/loykin/streamdrain/internal/metrics"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

var (
	// ErrStreamRead wraps any I/O failure that stopped a drain early.
	ErrStreamRead = errors.New("stream read failed")
	// ErrWaitInterrupted is reported when a content wait ends before the drain completes.
	ErrWaitInterrupted = errors.New("wait for drain interrupted")
)

// FailureFunc receives drain failures. It is called synchronously on the
// goroutine that detected the failure.
type FailureFunc func(err error, msg string)

// Drainer collects the lines of one output stream on a background goroutine.
type Drainer struct {
	source    io.Reader
	label     string
	onFailure FailureFunc
	enc       encoding.Encoding
	maxLines  int

	// mu guards lines, dropped and completed; done is closed under mu
	// right after completed flips.
	mu        sync.Mutex
	lines     []string
	dropped   int
	completed bool
	done      chan struct{}
}

// New creates a drainer for source. The drainer never closes source.
func New(source io.Reader, label string, opts ...Option) *Drainer {
	d := &Drainer{
		source: source,
		label:  label,
		lines:  []string{},
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.onFailure == nil {
		d.onFailure = d.logFailure
	}
	return d
}

// Start drains the source on a new goroutine. It must be called at most once.
func (d *Drainer) Start() {
	go d.Drain()
}

// Drain reads the source line by line until EOF or the first read error,
// then marks the drainer completed. It blocks; Start runs it in the background.
func (d *Drainer) Drain() {
	metrics.IncActiveDrainers()
	defer metrics.DecActiveDrainers()
	defer d.complete()

	var r io.Reader = d.source
	if d.enc != nil {
		r = transform.NewReader(r, d.enc.NewDecoder())
	}
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			metrics.IncReadErrors(d.label)
			d.onFailure(fmt.Errorf("%w: %w", ErrStreamRead, err), "failed to read "+d.label)
			return
		}
		if line != "" {
			d.append(trimLineEnding(line))
		}
		if err != nil {
			return
		}
	}
}

func (d *Drainer) append(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.maxLines > 0 && len(d.lines) >= d.maxLines {
		d.lines = d.lines[1:]
		d.dropped++
		metrics.IncDroppedLines(d.label)
	}
	d.lines = append(d.lines, line)
	metrics.IncLines(d.label, 1)
	metrics.AddBytes(d.label, len(line))
}

func (d *Drainer) complete() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.completed {
		return
	}
	d.completed = true
	close(d.done)
}

// Content blocks until the drain completes and returns every captured line.
func (d *Drainer) Content() []string {
	return d.ContentContext(context.Background())
}

// ContentContext blocks until the drain completes or ctx is done. An ended
// ctx is reported through the failure path and the lines captured so far are
// returned instead.
func (d *Drainer) ContentContext(ctx context.Context) []string {
	select {
	case <-d.done:
	case <-ctx.Done():
		select {
		case <-d.done:
		default:
			metrics.IncWaitInterrupted(d.label)
			d.onFailure(fmt.Errorf("%w: %w", ErrWaitInterrupted, ctx.Err()),
				"interrupted while waiting for "+d.label)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.completed {
		// the producer is still appending
		return slices.Clone(d.lines)
	}
	// capped so an append by one caller cannot write into another's result
	return d.lines[:len(d.lines):len(d.lines)]
}

// Done is closed once the drain has completed.
func (d *Drainer) Done() <-chan struct{} { return d.done }

// Completed reports whether the drain has finished.
func (d *Drainer) Completed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.completed
}

// Dropped reports how many lines were evicted by the line limit.
func (d *Drainer) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Label returns the stream name given to New.
func (d *Drainer) Label() string { return d.label }

func (d *Drainer) logFailure(err error, msg string) {
	slog.Error(msg, "stream", d.label, "component", fmt.Sprintf("%T", d), "error", err)
}

// trimLineEnding strips a trailing \n or \r\n, keeping embedded \r.
func trimLineEnding(line string) string {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if n > 0 && line[n-1] == '\r' {
		n--
	}
	return line[:n]
}
