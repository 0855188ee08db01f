// Package notify hands accepted leads to the sales team.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/models"
)

// DefaultSubjectPrefix is prepended to the lead kind to form the NATS subject
const DefaultSubjectPrefix = "dealership.leads."

// Notifier delivers lead events
type Notifier interface {
	Notify(ctx context.Context, event models.LeadEvent) error
}

// LogNotifier writes lead events to the service log
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, event models.LeadEvent) error {
	n.logger.Info("Lead received", logging.WithFields(map[string]interface{}{
		"lead_id": event.ID,
		"kind":    string(event.Kind),
		"summary": event.Summary,
	}))
	return nil
}

// publisher is the part of *nats.Conn the notifier uses
type publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSNotifier publishes lead events as JSON on "<prefix><kind>".
// Trace context from ctx travels in the message headers.
type NATSNotifier struct {
	conn   publisher
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

// Connect dials NATS and returns a notifier publishing under DefaultSubjectPrefix
func Connect(url string, logger *logging.Logger) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("autolot-server"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", logging.WithField("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logging.WithField("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	n := newNATSNotifier(nc, DefaultSubjectPrefix, logger)
	n.nc = nc
	return n, nil
}

func newNATSNotifier(conn publisher, prefix string, logger *logging.Logger) *NATSNotifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSNotifier{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject a lead kind is published on
func (n *NATSNotifier) Subject(kind models.LeadKind) string {
	return n.prefix + string(kind)
}

func (n *NATSNotifier) Notify(ctx context.Context, event models.LeadEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode lead event: %w", err)
	}

	msg := &nats.Msg{
		Subject: n.Subject(event.Kind),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Lead-Id", event.ID)
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish lead %s: %w", event.ID, err)
	}

	n.logger.Debug("Lead published", logging.WithFields(map[string]interface{}{
		"lead_id": event.ID,
		"subject": msg.Subject,
	}))
	return nil
}

// Close drains the connection
func (n *NATSNotifier) Close() error {
	if n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}

// headerCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Fanout sends each event to every notifier and returns the first error
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, event models.LeadEvent) error {
	var first error
	for _, n := range f {
		if err := n.Notify(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
