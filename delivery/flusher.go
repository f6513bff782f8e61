package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/flagkit/flagkit/backoff"
	"github.com/flagkit/flagkit/track"
)

// Defaults for Flusher.
const (
	DefaultFlushInterval = 10 * time.Second
	DefaultFlushRetries  = 3
	DefaultFinalTimeout  = 5 * time.Second
)

// ErrDropped is the cause of the error Flush returns when a batch was given
// up on after all retries.
var ErrDropped = errors.New("batch dropped")

// Drainer is the read side of an event queue. *track.Queue and
// *client.Client both satisfy it.
type Drainer interface {
	Drain() []track.Event
}

// Flusher periodically drains events and publishes them.
type Flusher struct {
	d        Drainer
	p        Publisher
	interval time.Duration
	retries  int
	final    time.Duration
	clock    clockwork.Clock
	backoff  *backoff.ExponentialBackoff
	logger   log.Logger

	delivered metrics.Counter
	dropped   metrics.Counter

	mu      sync.Mutex
	pending []track.Event // interrupted batch, published first by the next Flush
}

// FlusherOption sets an optional parameter for flushers.
type FlusherOption func(*Flusher)

// FlushInterval sets how often Run flushes.
func FlushInterval(d time.Duration) FlusherOption {
	return func(f *Flusher) { f.interval = d }
}

// FlushRetries sets how many times a failed batch is retried before it is
// dropped.
func FlushRetries(n int) FlusherOption {
	return func(f *Flusher) { f.retries = n }
}

// FlushFinalTimeout bounds the last flush Run performs on shutdown.
func FlushFinalTimeout(d time.Duration) FlusherOption {
	return func(f *Flusher) { f.final = d }
}

// FlushClock sets the clock that drives the flush ticker.
func FlushClock(c clockwork.Clock) FlusherOption {
	return func(f *Flusher) { f.clock = c }
}

// FlushBackoff sets the backoff used between retries.
func FlushBackoff(b *backoff.ExponentialBackoff) FlusherOption {
	return func(f *Flusher) { f.backoff = b }
}

// FlushLogger sets the logger.
func FlushLogger(logger log.Logger) FlusherOption {
	return func(f *Flusher) { f.logger = logger }
}

// FlushMetrics sets counters for delivered and dropped events.
func FlushMetrics(delivered, dropped metrics.Counter) FlusherOption {
	return func(f *Flusher) { f.delivered, f.dropped = delivered, dropped }
}

// NewFlusher returns a Flusher moving events from d to p.
func NewFlusher(d Drainer, p Publisher, options ...FlusherOption) *Flusher {
	f := &Flusher{
		d:         d,
		p:         p,
		interval:  DefaultFlushInterval,
		retries:   DefaultFlushRetries,
		final:     DefaultFinalTimeout,
		clock:     clockwork.NewRealClock(),
		backoff:   backoff.New(),
		logger:    log.NewNopLogger(),
		delivered: discard.NewCounter(),
		dropped:   discard.NewCounter(),
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// Flush drains once and publishes the batch, retrying failures. When every
// attempt fails the batch is dropped and an error wrapping ErrDropped is
// returned. When ctx ends before the retries do, the batch is kept and
// published ahead of newer events by the next Flush, and ctx.Err() is
// returned. An empty queue publishes nothing.
func (f *Flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	events := append(f.pending, f.d.Drain()...)
	f.pending = nil
	f.mu.Unlock()
	if len(events) == 0 {
		return nil
	}

	var err error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			if werr := f.backoff.Wait(ctx); werr != nil {
				f.keep(events, werr)
				return werr
			}
		}
		if err = f.p.Publish(ctx, events); err == nil {
			f.backoff.Reset()
			f.delivered.Add(float64(len(events)))
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			f.keep(events, err)
			return cerr
		}
		level.Warn(f.logger).Log("msg", "publish failed", "attempt", attempt+1, "events", len(events), "err", err)
	}

	f.dropped.Add(float64(len(events)))
	level.Error(f.logger).Log("msg", "dropping batch", "events", len(events), "err", err)
	return errors.Wrapf(ErrDropped, "%d events: %v", len(events), err)
}

func (f *Flusher) keep(events []track.Event, err error) {
	f.mu.Lock()
	f.pending = append(f.pending, events...)
	f.mu.Unlock()
	level.Info(f.logger).Log("msg", "flush interrupted, batch kept", "events", len(events), "err", err)
}

// Run flushes on every tick until ctx is done, then flushes one last time
// with a fresh context bounded by the final timeout. Flush errors are
// logged, not returned.
func (f *Flusher) Run(ctx context.Context) error {
	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.Chan():
			f.Flush(ctx)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), f.final)
			defer cancel()
			f.Flush(final)
			return ctx.Err()
		}
	}
}
