package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/testutil"
)

type fakePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakePublisher) PublishMsg(m *nats.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func sampleEvent() models.LeadEvent {
	return models.LeadEvent{
		ID:          "lead-123",
		Kind:        models.LeadSell,
		Summary:     "Audi A6 2019",
		SubmittedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Payload:     map[string]interface{}{"estimate": 26463},
	}
}

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*headerCarrier)(msg)

	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("expected nil keys, got %v", keys)
	}

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("expected traceparent, got %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestNATSNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := newNATSNotifier(pub, "", testutil.NullLogger())

	if err := n.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.msgs))
	}

	msg := pub.msgs[0]
	if msg.Subject != "dealership.leads.sell" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if msg.Header.Get("Lead-Id") != "lead-123" {
		t.Errorf("Lead-Id header = %q", msg.Header.Get("Lead-Id"))
	}

	var decoded models.LeadEvent
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.ID != "lead-123" || decoded.Kind != models.LeadSell {
		t.Errorf("decoded event = %+v", decoded)
	}
}

func TestNATSNotifierPropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	pub := &fakePublisher{}
	n := newNATSNotifier(pub, "test.", testutil.NullLogger())
	if err := n.Notify(ctx, sampleEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	got := pub.msgs[0].Header.Get("traceparent")
	if !strings.Contains(got, "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Errorf("traceparent = %q, want trace id propagated", got)
	}
	if pub.msgs[0].Subject != "test.sell" {
		t.Errorf("subject = %q, want test.sell", pub.msgs[0].Subject)
	}
}

func TestNATSNotifierPublishError(t *testing.T) {
	pub := &fakePublisher{err: nats.ErrConnectionClosed}
	n := newNATSNotifier(pub, "", testutil.NullLogger())

	err := n.Notify(context.Background(), sampleEvent())
	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Fatalf("Notify() error = %v, want ErrConnectionClosed", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close() without connection error = %v", err)
	}
}

type recordingNotifier struct {
	events []models.LeadEvent
	err    error
}

func (r *recordingNotifier) Notify(ctx context.Context, event models.LeadEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func TestFanout(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("down")}
	ok := &recordingNotifier{}

	err := Fanout{failing, ok, NewLogNotifier(testutil.NullLogger())}.Notify(context.Background(), sampleEvent())
	if err == nil || err.Error() != "down" {
		t.Fatalf("Fanout error = %v, want down", err)
	}
	if len(ok.events) != 1 {
		t.Fatal("later notifiers must still run after an error")
	}
}

func TestLogNotifier(t *testing.T) {
	logger, buf := testutil.CapturingLogger()

	if err := NewLogNotifier(logger).Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"lead_id":"lead-123"`) {
		t.Errorf("log output missing lead id: %s", buf.String())
	}
}
