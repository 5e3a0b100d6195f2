package drainer

import "golang.org/x/text/encoding"

// Option configures a Drainer at construction.
type Option func(*Drainer)

// WithFailureFunc routes read failures and interrupted waits to fn instead of slog.
func WithFailureFunc(fn FailureFunc) Option {
	return func(d *Drainer) {
		d.onFailure = fn
	}
}

// WithEncoding decodes the source from enc before splitting lines.
// nil keeps the bytes as they are (UTF-8).
func WithEncoding(enc encoding.Encoding) Option {
	return func(d *Drainer) {
		d.enc = enc
	}
}

// WithMaxLines keeps only the most recent n lines. n <= 0 means unbounded.
func WithMaxLines(n int) Option {
	return func(d *Drainer) {
		if n < 0 {
			n = 0
		}
		d.maxLines = n
	}
}
