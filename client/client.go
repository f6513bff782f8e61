// Package client is the entry point an application holds on to. A Client
// owns one configuration store and one event queue, and exposes the four
// operations the rest of the system needs: resolve and track for the
// application, set for the sync collaborator, and drain for the delivery
// collaborator.
//
// Construct one Client per process in func main and pass it to whatever
// needs it. There are no package-level singletons.
package client

import (
	"sync"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonboulle/clockwork"

	"github.com/flagkit/flagkit/flags"
	"github.com/flagkit/flagkit/store"
	"github.com/flagkit/flagkit/track"
)

// Metrics are the instruments a Client reports to. Nil fields are replaced
// with discarding implementations.
type Metrics struct {
	Resolutions metrics.Counter // label "reason"
	Tracked     metrics.Counter // label "event"
	Dropped     metrics.Counter
	QueueDepth  metrics.Gauge
}

// Client ties a Store, Resolver, Queue and Recorder together.
type Client struct {
	store    *store.Store
	resolver *flags.Resolver
	queue    *track.Queue
	recorder *track.Recorder
	logger   log.Logger

	mu          sync.RWMutex // held for reading by Track, for writing by Close
	closed      bool
	discardOnce sync.Once

	clock    clockwork.Clock
	capacity int
	metrics  Metrics
}

// Option sets an optional parameter for clients.
type Option func(*Client)

// WithLogger sets the logger handed to every component.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock sets the clock used to stamp events.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithQueueCapacity bounds the event queue. See track.QueueCapacity.
func WithQueueCapacity(n int) Option {
	return func(c *Client) { c.capacity = n }
}

// WithMetrics sets the instruments.
func WithMetrics(m Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New returns a ready Client with an empty store and queue.
func New(options ...Option) *Client {
	c := &Client{
		logger: log.NewNopLogger(),
		clock:  clockwork.NewRealClock(),
	}
	for _, option := range options {
		option(c)
	}
	if c.metrics.Resolutions == nil {
		c.metrics.Resolutions = discard.NewCounter()
	}
	if c.metrics.Tracked == nil {
		c.metrics.Tracked = discard.NewCounter()
	}
	if c.metrics.Dropped == nil {
		c.metrics.Dropped = discard.NewCounter()
	}
	if c.metrics.QueueDepth == nil {
		c.metrics.QueueDepth = discard.NewGauge()
	}

	c.store = store.New()
	c.resolver = flags.NewResolver(c.store,
		flags.ResolverLogger(log.With(c.logger, "component", "resolver")),
		flags.ResolverMetrics(c.metrics.Resolutions),
	)
	c.queue = track.NewQueue(
		track.QueueCapacity(c.capacity),
		track.QueueDropped(c.metrics.Dropped),
		track.QueueDepth(c.metrics.QueueDepth),
	)
	c.recorder = track.NewRecorder(c.queue,
		track.RecorderClock(c.clock),
		track.RecorderLogger(log.With(c.logger, "component", "recorder")),
		track.RecorderMetrics(c.metrics.Tracked),
	)
	return c
}

// Resolve returns the effective string value of k.
func (c *Client) Resolve(k flags.Key[string]) string {
	return flags.Resolve(c.resolver, k)
}

// ResolveBool returns the effective bool value of k.
func (c *Client) ResolveBool(k flags.Key[bool]) bool {
	return flags.Resolve(c.resolver, k)
}

// ResolveInt returns the effective int64 value of k.
func (c *Client) ResolveInt(k flags.Key[int64]) int64 {
	return flags.Resolve(c.resolver, k)
}

// ResolveFloat returns the effective float64 value of k.
func (c *Client) ResolveFloat(k flags.Key[float64]) float64 {
	return flags.Resolve(c.resolver, k)
}

// Get returns the effective value of k for any key type.
func Get[T flags.Value](c *Client, k flags.Key[T]) T {
	return flags.Resolve(c.resolver, k)
}

// Track records a custom event. After Close, events are discarded; the
// first discard is logged at debug level.
func (c *Client) Track(name string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.discardOnce.Do(func() {
			level.Debug(c.logger).Log("msg", "client closed, event discarded", "event", name)
		})
		return
	}
	c.recorder.Track(name)
}

// Set stores a live variable value. It is meant for sync collaborators.
func (c *Client) Set(id, value string) {
	c.store.Set(id, value)
}

// Drain removes and returns all pending events in the order they were
// tracked. It is meant for delivery collaborators.
func (c *Client) Drain() []track.Event {
	return c.queue.Drain()
}

// Store returns the client's configuration store.
func (c *Client) Store() *store.Store { return c.store }

// Queue returns the client's event queue.
func (c *Client) Queue() *track.Queue { return c.queue }

// Resolver returns the client's resolver, for building typed flags.
func (c *Client) Resolver() *flags.Resolver { return c.resolver }

// Close stops the client from accepting new events and returns whatever was
// still pending, so the owner can hand it to a final delivery. Subsequent
// calls return nothing. Resolution keeps working after Close.
func (c *Client) Close() []track.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return []track.Event{}
	}
	c.closed = true
	pending := c.queue.Drain()
	level.Info(c.logger).Log("msg", "client closed", "pending", len(pending))
	return pending
}
