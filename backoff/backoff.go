// Package backoff provides jittered exponential delays for collaborators
// that retry I/O: reloading a datafile, publishing a batch of events.
package backoff

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultInterval    = time.Second
	DefaultMaxInterval = time.Minute
)

// ExponentialBackoff provides jittered exponential durations for the purpose of
// avoiding flooding a service with requests. It is safe for concurrent use.
type ExponentialBackoff struct {
	Interval time.Duration
	Max      time.Duration

	mu      sync.Mutex
	current time.Duration
}

// New creates a new ExponentialBackoff with the default values.
func New() *ExponentialBackoff {
	return NewWith(DefaultInterval, DefaultMaxInterval)
}

// NewWith creates a new ExponentialBackoff starting at interval and never
// exceeding max.
func NewWith(interval, max time.Duration) *ExponentialBackoff {
	b := &ExponentialBackoff{Interval: interval, Max: max}
	b.Reset()
	return b
}

// Reset should be called after a request succeeds.
func (b *ExponentialBackoff) Reset() {
	b.mu.Lock()
	b.current = b.Interval
	b.mu.Unlock()
}

// Wait increases the backoff and blocks until the duration is over or ctx
// is done, in which case it returns ctx.Err().
func (b *ExponentialBackoff) Wait(ctx context.Context) error {
	t := time.NewTimer(b.NextBackoff())
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextBackoff updates the time interval and returns the updated value.
func (b *ExponentialBackoff) NextBackoff() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := next(b.current)
	if d > b.Max {
		d = b.Max
	}
	b.current = d
	return d
}

// next provides the exponential jittered backoff value. See
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
// for rationale.
func next(current time.Duration) time.Duration {
	d := float64(current * 2)
	jitter := rand.Float64() + 0.5
	return time.Duration(d * jitter)
}
