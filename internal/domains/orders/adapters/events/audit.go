package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Handler receives decoded envelopes. A returned error nacks the message.
type Handler func(ctx context.Context, env Envelope) error

// Consume subscribes to the order topic and calls handle for every event until
// ctx is cancelled. Malformed payloads are logged and acked.
func Consume(ctx context.Context, sub message.Subscriber, logger *slog.Logger, handle Handler) error {
	ch, err := sub.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}
	propagator := otel.GetTextMapPropagator()
	go func() {
		for msg := range ch {
			carrier := propagation.MapCarrier{}
			for k, v := range msg.Metadata {
				carrier[k] = v
			}
			msgCtx := propagator.Extract(ctx, carrier)

			var env Envelope
			if err := json.Unmarshal(msg.Payload, &env); err != nil {
				logger.WarnContext(msgCtx, "dropping malformed order event", slog.String("message.id", msg.UUID), slog.String("error", err.Error()))
				msg.Ack()
				continue
			}
			if err := handle(msgCtx, env); err != nil {
				logger.ErrorContext(msgCtx, "order event handler failed", slog.String("event", env.Name), slog.String("error", err.Error()))
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

// AuditLog writes one structured log line per order event.
func AuditLog(logger *slog.Logger) Handler {
	return func(ctx context.Context, env Envelope) error {
		logger.InfoContext(ctx, "order event",
			slog.String("event", env.Name),
			slog.String("order.id", env.AggregateID),
			slog.Time("occurred_at", env.OccurredAt),
			slog.String("data", string(env.Data)))
		return nil
	}
}
