// Package events publishes batch lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/and161185/ayurtrace/internal/model"
)

// Event types.
const (
	TypeSubmitted = "submitted"
	TypeReviewed  = "reviewed"
)

// Publisher delivers batch events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, ev model.BatchEvent) error
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, model.BatchEvent) error { return nil }

type natsConn interface {
	Publish(subj string, data []byte) error
}

// NATS publishes JSON-encoded events on "<prefix>.<type>".
type NATS struct {
	conn   natsConn
	prefix string
}

// NewNATS wraps an existing connection.
func NewNATS(conn natsConn, prefix string) *NATS {
	if prefix == "" {
		prefix = "ayurtrace.batches"
	}
	return &NATS{conn: conn, prefix: prefix}
}

// Connect dials a NATS server. The returned close function drains the connection.
func Connect(url, prefix string) (*NATS, func(), error) {
	nc, err := nats.Connect(url,
		nats.Name("ayurtrace"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewNATS(nc, prefix), func() { _ = nc.Drain() }, nil
}

// Subject returns the subject an event of type typ is published on.
func (n *NATS) Subject(typ string) string { return n.prefix + "." + typ }

// Publish implements Publisher.
func (n *NATS) Publish(ctx context.Context, ev model.BatchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.conn.Publish(n.Subject(ev.Type), data)
}
