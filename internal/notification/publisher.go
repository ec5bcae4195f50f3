package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// StreamWriter is the part of *redis.Client the publisher uses.
type StreamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

type PublisherOptions struct {
	Timeout time.Duration // bound on one XADD, expiry counts as a failure
	MaxLen  int64         // approximate stream cap, 0 disables trimming
}

// Publisher hands events to the broker. It is fire-and-forget: a broker
// failure is logged and counted, never returned to the caller, and the event
// is dropped.
type Publisher struct {
	client  StreamWriter
	topo    Topology
	opts    PublisherOptions
	logger  *slog.Logger
	metrics *Metrics
}

func NewPublisher(client StreamWriter, topo Topology, opts PublisherOptions, logger *slog.Logger, metrics *Metrics) *Publisher {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	return &Publisher{
		client:  client,
		topo:    topo,
		opts:    opts,
		logger:  logger.With("component", "notification_publisher", "stream", topo.Stream()),
		metrics: metrics,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) {
	payload, err := encodeEvent(ev)
	if err != nil {
		p.logger.Error("encode notification event failed",
			"appointment_id", ev.AppointmentID, "event_type", ev.EventType, "err", err)
		p.metrics.incPublished(ev.EventType, resultEncodeError)
		return
	}

	values := map[string]any{
		fieldPayload:    payload,
		fieldEventType:  string(ev.EventType),
		fieldRoutingKey: p.topo.RoutingKey,
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		values[k] = v
	}

	// The caller's write is already committed; its cancellation must not
	// abort the handoff, only the send timeout may.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.Timeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: p.topo.Stream(),
		Values: values,
	}
	if p.opts.MaxLen > 0 {
		args.MaxLen = p.opts.MaxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(sendCtx, args).Result()
	if err != nil {
		p.logger.Error("publish notification event failed",
			"appointment_id", ev.AppointmentID, "event_type", ev.EventType, "err", err)
		p.metrics.incPublished(ev.EventType, resultBrokerError)
		return
	}

	p.logger.Info("published notification event",
		"appointment_id", ev.AppointmentID, "event_type", ev.EventType, "message_id", id)
	p.metrics.incPublished(ev.EventType, resultOK)
}
