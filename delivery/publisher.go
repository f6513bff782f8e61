// Package delivery moves tracked events from a queue to an analytics
// endpoint.
//
// A Publisher sends one batch of events somewhere. Most parameterization of
// a publisher (subject, endpoint, encoding) should be done in its concrete
// constructor; cross-cutting behavior such as circuit breaking and rate
// limiting is added with Middleware. A Flusher drains a queue on a schedule
// and hands each batch to a Publisher, retrying with backoff. Delivery
// failures stop here: they are logged and never reach the code that
// tracked the events.
package delivery

import (
	"context"

	"github.com/go-kit/log"

	"github.com/flagkit/flagkit/track"
)

// Publisher delivers a batch of events.
type Publisher interface {
	Publish(ctx context.Context, events []track.Event) error
}

// PublisherFunc is an adapter to use a stand-alone function as a Publisher.
type PublisherFunc func(ctx context.Context, events []track.Event) error

// Publish conforms to the Publisher interface.
func (f PublisherFunc) Publish(ctx context.Context, events []track.Event) error {
	return f(ctx, events)
}

// Middleware is a chainable behavior modifier for publishers.
type Middleware func(Publisher) Publisher

// Chain is a helper function for composing middlewares. Batches traverse
// them in the order they're declared. That is, the first middleware is
// treated as the outermost middleware.
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Publisher) Publisher {
		for i := len(others) - 1; i >= 0; i-- { // reverse
			next = others[i](next)
		}
		return outer(next)
	}
}

// LogPublisher returns a Publisher that writes one log line per event. It's
// useful during development, and as the fallback when no transport is
// configured.
func LogPublisher(logger log.Logger) Publisher {
	return PublisherFunc(func(_ context.Context, events []track.Event) error {
		for _, e := range events {
			if err := logger.Log("event", e.Name, "id", e.ID, "time", e.Time); err != nil {
				return err
			}
		}
		return nil
	})
}
