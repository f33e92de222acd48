package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

type natsPublisher struct {
	id      string
	subject string
	timeout time.Duration
	conn    *nats.Conn
	log     Logger
}

func newNATSPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.NATS == nil {
		return nil, fmt.Errorf("publisher %q missing nats configuration", cfg.ID)
	}

	timeout := time.Duration(cfg.NATS.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = natsDefaultTimeoutSeconds * time.Second
	}
	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Name("blogmeta-"+cfg.ID),
		nats.Timeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &natsPublisher{
		id:      cfg.ID,
		subject: cfg.NATS.Subject,
		timeout: timeout,
		conn:    conn,
		log:     ensureLogger(log),
	}, nil
}

func (n *natsPublisher) ID() string   { return n.id }
func (n *natsPublisher) Type() string { return TypeNATS }

// Publish sends the event with trace context in the message headers and
// flushes so delivery failures surface to the caller.
func (n *natsPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: n.subject,
		Data:    payload,
		Header:  make(nats.Header),
	}
	for k, v := range evt.attributes() {
		msg.Header.Set(k, v)
	}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to nats: %w", err)
	}
	// FlushWithContext refuses contexts without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush nats: %w", err)
	}
	n.log.DebugObj("nats publisher delivered event", "publisher_nats_delivery", map[string]any{
		"publisher_id": n.id,
		"subject":      n.subject,
	})
	return nil
}

func (n *natsPublisher) Close() error {
	return n.conn.Drain()
}

// natsHeaderCarrier adapts nats.Msg headers to a propagation.TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string { return c.Header.Get(key) }
func (c *natsHeaderCarrier) Set(key, val string)   { c.Header.Set(key, val) }

func (c *natsHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}
