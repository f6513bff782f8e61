package delivery

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/flagkit/flagkit/track"
)

// Breaker returns a Middleware that implements the circuit breaker pattern
// using the sony/gobreaker package. Only errors returned by the wrapped
// publisher count against the circuit breaker's error count. While the
// breaker is open, batches fail fast with gobreaker.ErrOpenState.
func Breaker(cb *gobreaker.CircuitBreaker) Middleware {
	return func(next Publisher) Publisher {
		return PublisherFunc(func(ctx context.Context, events []track.Event) error {
			_, err := cb.Execute(func() (interface{}, error) {
				return nil, next.Publish(ctx, events)
			})
			return err
		})
	}
}

// Limit returns a Middleware that delays each batch until the limiter
// allows it, or until ctx is done.
func Limit(l *rate.Limiter) Middleware {
	return func(next Publisher) Publisher {
		return PublisherFunc(func(ctx context.Context, events []track.Event) error {
			if err := l.Wait(ctx); err != nil {
				return err
			}
			return next.Publish(ctx, events)
		})
	}
}

// Logging returns a Middleware that logs every batch with its size, outcome
// and duration.
func Logging(logger log.Logger) Middleware {
	return func(next Publisher) Publisher {
		return PublisherFunc(func(ctx context.Context, events []track.Event) (err error) {
			defer func(begin time.Time) {
				logger.Log("batch", len(events), "err", err, "took", time.Since(begin))
			}(time.Now())
			return next.Publish(ctx, events)
		})
	}
}
