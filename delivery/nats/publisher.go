// Package nats provides a delivery.Publisher that sends event batches over
// NATS.
package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/flagkit/flagkit/track"
)

// Batch is the JSON payload of one published message.
type Batch struct {
	Events []track.Event `json:"events"`
}

// Publisher publishes event batches to a single subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

// PublisherOption sets an optional parameter for publishers.
type PublisherOption func(*Publisher)

// PublisherTimeout bounds how long Publish waits for the server to
// acknowledge the flush. The default is 10 seconds.
func PublisherTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) { p.timeout = timeout }
}

// NewPublisher constructs a Publisher sending to subject over nc.
func NewPublisher(nc *nats.Conn, subject string, options ...PublisherOption) *Publisher {
	p := &Publisher{
		nc:      nc,
		subject: subject,
		timeout: 10 * time.Second,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Publish encodes events as a Batch, publishes it, and flushes the
// connection so that a nil error means the server has the message.
func (p *Publisher) Publish(ctx context.Context, events []track.Event) error {
	data, err := json.Marshal(Batch{Events: events})
	if err != nil {
		return errors.Wrap(err, "encoding batch")
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return errors.Wrapf(err, "publishing to %s", p.subject)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return errors.Wrap(p.nc.FlushWithContext(ctx), "flushing")
}
