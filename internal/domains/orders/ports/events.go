package ports

import (
	"context"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

// EventPublisher forwards domain events after they are persisted.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...domain.Event) error { return nil }
