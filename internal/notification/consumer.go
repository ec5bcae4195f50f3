package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"
)

// StreamReader is the part of *redis.Client the consumer uses.
type StreamReader interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

type ConsumerOptions struct {
	Name       string        // consumer name inside the group
	BatchSize  int64         // messages per read
	Block      time.Duration // XREADGROUP block
	ClaimIdle  time.Duration // reclaim messages pending longer than this, 0 disables
	RatePerSec float64       // notifier throttle, 0 disables
	RetryDelay time.Duration // pause after a broker error
}

// Consumer reads notification events from the stream and hands them to the
// Notifier. Every received message is acknowledged whatever the outcome of
// the notification, so each receipt gets at most one processing attempt.
// Messages left pending by a crashed worker are reclaimed after ClaimIdle.
type Consumer struct {
	client   StreamReader
	topo     Topology
	notifier Notifier
	opts     ConsumerOptions
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *Metrics

	claimCursor string
}

func NewConsumer(client StreamReader, topo Topology, notifier Notifier, opts ConsumerOptions, logger *slog.Logger, metrics *Metrics) *Consumer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.Block <= 0 {
		opts.Block = 5 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		burst := int(opts.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}

	return &Consumer{
		client:      client,
		topo:        topo,
		notifier:    notifier,
		opts:        opts,
		limiter:     limiter,
		logger:      logger.With("component", "notification_consumer", "stream", topo.Stream(), "group", topo.Group(), "consumer", opts.Name),
		metrics:     metrics,
		claimCursor: "0-0",
	}
}

// Run consumes until ctx is cancelled. It only returns an error when the
// consumer group cannot be set up.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}
	c.logger.Info("notification consumer started")

	for {
		if ctx.Err() != nil {
			c.logger.Info("notification consumer stopped")
			return nil
		}

		if err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("poll notification stream failed", "err", err)
			if isNoGroup(err) {
				c.logger.Warn("consumer group missing, recreating")
				c.claimCursor = "0-0"
				gerr := c.ensureGroup(ctx)
				if gerr == nil {
					continue
				}
				c.logger.Error("recreate consumer group failed", "err", gerr)
			}
			select {
			case <-ctx.Done():
			case <-time.After(c.opts.RetryDelay):
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.topo.Stream(), c.topo.Group(), "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// isNoGroup reports whether the stream or its group no longer exists, as
// after a Redis restart without persistence.
func isNoGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOGROUP")
}

// Poll reclaims stale pending messages and then reads one batch of new ones.
func (c *Consumer) Poll(ctx context.Context) error {
	if c.opts.ClaimIdle > 0 {
		if err := c.reclaim(ctx); err != nil {
			return err
		}
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.topo.Group(),
		Consumer: c.opts.Name,
		Streams:  []string{c.topo.Stream(), ">"},
		Count:    c.opts.BatchSize,
		Block:    c.opts.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read group: %w", err)
	}

	for _, s := range streams {
		for _, msg := range s.Messages {
			if !c.handle(ctx, msg) {
				return nil
			}
		}
	}
	return nil
}

func (c *Consumer) reclaim(ctx context.Context) error {
	msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.topo.Stream(),
		Group:    c.topo.Group(),
		Consumer: c.opts.Name,
		MinIdle:  c.opts.ClaimIdle,
		Start:    c.claimCursor,
		Count:    c.opts.BatchSize,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("auto claim: %w", err)
	}
	c.claimCursor = next
	if c.claimCursor == "" {
		c.claimCursor = "0-0"
	}

	for _, msg := range msgs {
		c.logger.Warn("reclaimed pending notification message", "message_id", msg.ID)
		if !c.handle(ctx, msg) {
			return nil
		}
	}
	return nil
}

// handle processes and acknowledges one message. It returns false when the
// consumer is shutting down; the message is then left pending so another
// worker can reclaim it.
func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) bool {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false
		}
	}
	if ctx.Err() != nil {
		return false
	}

	msgCtx := otel.GetTextMapPropagator().Extract(ctx, messageCarrier(msg.Values))

	ev, err := decodeMessage(msg.Values)
	if err != nil {
		c.logger.Error("discarding malformed notification message", "message_id", msg.ID, "err", err)
		c.metrics.incConsumed(labelEventType(msg.Values[fieldEventType]), resultDecodeError)
	} else {
		c.OnEvent(msgCtx, ev)
	}

	c.ack(ctx, msg.ID)
	return true
}

// OnEvent performs the notification for one delivered event. Failures,
// panics included, are logged and counted and never escape.
func (c *Consumer) OnEvent(ctx context.Context, ev Event) {
	c.logger.Info("received notification event",
		"appointment_id", ev.AppointmentID, "event_type", ev.EventType)

	if err := c.notify(ctx, ev); err != nil {
		c.logger.Error("send notification failed",
			"appointment_id", ev.AppointmentID, "event_type", ev.EventType, "err", err)
		c.metrics.incConsumed(ev.EventType, resultNotifyError)
		return
	}

	c.logger.Info("notification delivered",
		"appointment_id", ev.AppointmentID, "event_type", ev.EventType)
	c.metrics.incConsumed(ev.EventType, resultOK)
}

func (c *Consumer) notify(ctx context.Context, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return c.notifier.Notify(ctx, ev)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := c.client.XAck(ackCtx, c.topo.Stream(), c.topo.Group(), id).Err(); err != nil {
		c.logger.Error("ack notification message failed", "message_id", id, "err", err)
	}
}

// labelEventType bounds the metric label to the known event types.
func labelEventType(v any) EventType {
	if t := EventType(stringValue(v)); t.Valid() {
		return t
	}
	return eventTypeUnknown
}

func messageCarrier(values map[string]any) propagation.MapCarrier {
	carrier := propagation.MapCarrier{}
	for _, key := range otel.GetTextMapPropagator().Fields() {
		if v, ok := values[key]; ok {
			carrier[key] = stringValue(v)
		}
	}
	return carrier
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}
