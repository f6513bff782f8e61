package track

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jonboulle/clockwork"
)

// Recorder turns event names into Events on a Queue.
type Recorder struct {
	q       *Queue
	clock   clockwork.Clock
	logger  log.Logger
	tracked metrics.Counter
}

// RecorderOption sets an optional parameter for recorders.
type RecorderOption func(*Recorder)

// RecorderClock sets the clock used to stamp events. By default, the real
// clock is used.
func RecorderClock(c clockwork.Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// RecorderLogger sets the logger. Each recorded event is logged at debug
// level.
func RecorderLogger(logger log.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// RecorderMetrics sets a counter incremented once per recorded event, with
// the label "event" set to the event name.
func RecorderMetrics(tracked metrics.Counter) RecorderOption {
	return func(r *Recorder) { r.tracked = tracked }
}

// NewRecorder returns a Recorder appending to q.
func NewRecorder(q *Queue, options ...RecorderOption) *Recorder {
	r := &Recorder{
		q:       q,
		clock:   clockwork.NewRealClock(),
		logger:  log.NewNopLogger(),
		tracked: discard.NewCounter(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Track records an event called name, stamped with the current time.
func (r *Recorder) Track(name string) {
	e := NewEvent(name, r.clock.Now())
	r.q.Append(e)
	r.tracked.With("event", name).Add(1)
	level.Debug(r.logger).Log("msg", "tracked", "event", name, "id", e.ID)
}
