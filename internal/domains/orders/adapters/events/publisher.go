package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// Topic carries every order domain event.
const Topic = "orders.events"

const (
	metadataEventName   = "event_name"
	metadataAggregateID = "aggregate_id"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Envelope is the JSON payload of a published event.
type Envelope struct {
	Name        string          `json:"name"`
	AggregateID string          `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Data        json.RawMessage `json:"data"`
}

// Publisher forwards domain events to a watermill publisher.
type Publisher struct {
	pub   message.Publisher
	topic string
}

func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub, topic: Topic}
}

// NewGoChannel returns an in-process pub/sub that fans events out to every subscriber.
func NewGoChannel(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewLogger(logger))
}

func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	msgs := make([]*message.Message, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("events: encode %s: %w", event.EventName(), err)
		}
		payload, err := json.Marshal(Envelope{
			Name:        event.EventName(),
			AggregateID: event.AggregateID(),
			OccurredAt:  event.OccurredAt(),
			Data:        data,
		})
		if err != nil {
			return fmt.Errorf("events: encode envelope: %w", err)
		}
		msg := message.NewMessage(uuid.NewString(), payload)
		msg.Metadata.Set(metadataEventName, event.EventName())
		msg.Metadata.Set(metadataAggregateID, event.AggregateID())
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
		msgs = append(msgs, msg)
	}
	if err := p.pub.Publish(p.topic, msgs...); err != nil {
		return fmt.Errorf("events: publish to %s: %w", p.topic, err)
	}
	return nil
}

// slogAdapter bridges slog to watermill.LoggerAdapter.
type slogAdapter struct{ log *slog.Logger }

// NewLogger adapts logger for watermill components.
func NewLogger(logger *slog.Logger) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogAdapter{log: logger}
}

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}

func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}

func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}

func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}

func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
