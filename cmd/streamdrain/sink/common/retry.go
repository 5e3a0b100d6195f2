package common

import (
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultRetryElapsed bounds how long a remote flush keeps retrying.
const DefaultRetryElapsed = 30 * time.Second

// Retry runs op with exponential backoff until it succeeds or maxElapsed
// passes. maxElapsed <= 0 tries exactly once.
func Retry(sink string, maxElapsed time.Duration, op func() error) error {
	if maxElapsed <= 0 {
		return op()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = maxElapsed

	return backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		slog.Warn("sink flush failed; retrying", "sink", sink, "error", err, "backoff", wait)
	})
}
