package delivery

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/flagkit/flagkit/track"
)

var batch = []track.Event{track.NewEvent("Pressed Button", time.Now())}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Publisher) Publisher {
			return PublisherFunc(func(ctx context.Context, events []track.Event) error {
				order = append(order, name)
				return next.Publish(ctx, events)
			})
		}
	}
	p := Chain(mark("first"), mark("second"), mark("third"))(PublisherFunc(func(context.Context, []track.Event) error {
		order = append(order, "publisher")
		return nil
	}))

	if err := p.Publish(context.Background(), batch); err != nil {
		t.Fatal(err)
	}
	if want, have := "first second third publisher", strings.Join(order, " "); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
}

func TestBreakerOpens(t *testing.T) {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "delivery",
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
		Timeout: time.Hour,
	})
	calls := 0
	p := Breaker(cb)(PublisherFunc(func(context.Context, []track.Event) error {
		calls++
		return errors.New("boom")
	}))

	for i := 0; i < 2; i++ {
		if err := p.Publish(context.Background(), batch); err == nil {
			t.Fatalf("call %d: want error", i)
		}
	}
	if err := p.Publish(context.Background(), batch); err != gobreaker.ErrOpenState {
		t.Errorf("want %v, have %v", gobreaker.ErrOpenState, err)
	}
	if want, have := 2, calls; want != have {
		t.Errorf("want %d calls to reach the publisher, have %d", want, have)
	}
}

func TestBreakerPassesSuccess(t *testing.T) {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "delivery"})
	p := Breaker(cb)(PublisherFunc(func(context.Context, []track.Event) error { return nil }))
	if err := p.Publish(context.Background(), batch); err != nil {
		t.Errorf("want nil, have %v", err)
	}
}

func TestLimitHonoursContext(t *testing.T) {
	l := rate.NewLimiter(rate.Every(time.Hour), 1)
	calls := 0
	p := Limit(l)(PublisherFunc(func(context.Context, []track.Event) error {
		calls++
		return nil
	}))

	if err := p.Publish(context.Background(), batch); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Publish(ctx, batch); err == nil {
		t.Errorf("want limiter error, have nil")
	}
	if want, have := 1, calls; want != have {
		t.Errorf("want %d calls, have %d", want, have)
	}
}

func TestLoggingAndLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogfmtLogger(&buf)
	p := Logging(logger)(LogPublisher(logger))

	if err := p.Publish(context.Background(), batch); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `event="Pressed Button"`) {
		t.Errorf("want event line, have %q", out)
	}
	if !strings.Contains(out, "batch=1") {
		t.Errorf("want batch line, have %q", out)
	}
}
