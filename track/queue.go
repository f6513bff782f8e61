package track

import (
	"sync"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
)

// Queue is a FIFO of events awaiting delivery. Append and Drain may be
// called concurrently.
type Queue struct {
	mu       sync.Mutex
	events   []Event
	capacity int

	dropped metrics.Counter
	depth   metrics.Gauge
}

// QueueOption sets an optional parameter for queues.
type QueueOption func(*Queue)

// QueueCapacity bounds the queue to n events. When full, Append evicts the
// oldest event. Zero, the default, means unbounded.
func QueueCapacity(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// QueueDropped sets a counter incremented for every evicted event.
func QueueDropped(c metrics.Counter) QueueOption {
	return func(q *Queue) { q.dropped = c }
}

// QueueDepth sets a gauge tracking the number of pending events.
func QueueDepth(g metrics.Gauge) QueueOption {
	return func(q *Queue) { q.depth = g }
}

// NewQueue returns an empty Queue.
func NewQueue(options ...QueueOption) *Queue {
	q := &Queue{
		dropped: discard.NewCounter(),
		depth:   discard.NewGauge(),
	}
	for _, option := range options {
		option(q)
	}
	return q
}

// Append adds e to the back of the queue.
func (q *Queue) Append(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.events) >= q.capacity {
		// Re-slice past the oldest event. The next append that outgrows
		// the backing array copies only live events, so eviction is
		// amortized constant time.
		q.events[0] = Event{}
		q.events = q.events[1:]
		q.dropped.Add(1)
	}
	q.events = append(q.events, e)
	q.depth.Set(float64(len(q.events)))
}

// Drain removes and returns every pending event in insertion order. The
// result is empty, not nil, when nothing is pending.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	if out == nil {
		out = []Event{}
	}
	q.events = nil
	q.depth.Set(0)
	return out
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
