package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func sampleEvent(t EventType) Event {
	return Event{
		AppointmentID:   uuid.New(),
		PatientName:     "Maria Silva",
		PatientEmail:    "maria@example.test",
		DoctorName:      "Dr. Costa",
		AppointmentDate: time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC),
		Specialty:       "Cardiology",
		EventType:       t,
	}
}

// blockingStream never answers an XADD before its context expires.
type blockingStream struct{}

func (blockingStream) XAdd(ctx context.Context, _ *redis.XAddArgs) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	<-ctx.Done()
	cmd.SetErr(ctx.Err())
	return cmd
}

func TestPublisher_Publish(t *testing.T) {
	stream := newFakeStream()
	metrics := newTestMetrics(t)
	topo := DefaultTopology()
	p := NewPublisher(stream, topo, PublisherOptions{MaxLen: 1000}, discardLogger, metrics)

	ev := sampleEvent(EventCreated)
	p.Publish(context.Background(), ev)

	require.Len(t, stream.adds, 1)
	args := stream.adds[0]
	assert.Equal(t, "appointment.exchange:appointment.notification", args.Stream)
	assert.Equal(t, int64(1000), args.MaxLen)
	assert.True(t, args.Approx)

	values := stream.messages[0].Values
	assert.Equal(t, "CREATED", values[fieldEventType])
	assert.Equal(t, "appointment.notification", values[fieldRoutingKey])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(values[fieldPayload].(string)), &decoded))
	assert.Equal(t, ev.AppointmentID.String(), decoded["appointmentId"])
	assert.Equal(t, "maria@example.test", decoded["patientEmail"])
	assert.Equal(t, "2026-04-02T14:30:00Z", decoded["appointmentDate"])
	assert.Equal(t, "CREATED", decoded["eventType"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.published.WithLabelValues("CREATED", resultOK)))
}

func TestPublisher_NoTrimWhenMaxLenUnset(t *testing.T) {
	stream := newFakeStream()
	p := NewPublisher(stream, DefaultTopology(), PublisherOptions{}, discardLogger, nil)

	p.Publish(context.Background(), sampleEvent(EventUpdated))

	require.Len(t, stream.adds, 1)
	assert.Zero(t, stream.adds[0].MaxLen)
	assert.False(t, stream.adds[0].Approx)
}

func TestPublisher_BrokerErrorIsAbsorbed(t *testing.T) {
	stream := newFakeStream()
	stream.addErr = errors.New("connection refused")
	metrics := newTestMetrics(t)
	p := NewPublisher(stream, DefaultTopology(), PublisherOptions{}, discardLogger, metrics)

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), sampleEvent(EventCancelled))
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.published.WithLabelValues("CANCELLED", resultBrokerError)))
}

func TestPublisher_SendIsBounded(t *testing.T) {
	metrics := newTestMetrics(t)
	p := NewPublisher(blockingStream{}, DefaultTopology(), PublisherOptions{Timeout: 30 * time.Millisecond}, discardLogger, metrics)

	start := time.Now()
	p.Publish(context.Background(), sampleEvent(EventCreated))

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.published.WithLabelValues("CREATED", resultBrokerError)))
}

func TestPublisher_IgnoresCallerCancellation(t *testing.T) {
	stream := newFakeStream()
	p := NewPublisher(stream, DefaultTopology(), PublisherOptions{}, discardLogger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Publish(ctx, sampleEvent(EventCreated))

	assert.Len(t, stream.messages, 1)
}

func TestPublisher_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b, 0x0c, 0x01},
		SpanID:     trace.SpanID{0x01, 0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	stream := newFakeStream()
	p := NewPublisher(stream, DefaultTopology(), PublisherOptions{}, discardLogger, nil)
	p.Publish(ctx, sampleEvent(EventCreated))

	require.Len(t, stream.messages, 1)
	tp, ok := stream.messages[0].Values["traceparent"].(string)
	require.True(t, ok)
	assert.Contains(t, tp, sc.TraceID().String())
}
