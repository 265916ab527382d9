package events

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

func TestPublisher_DeliversEnvelopes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewGoChannel(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer bus.Close()

	received := make(chan Envelope, 2)
	require.NoError(t, Consume(ctx, bus, nil, func(_ context.Context, env Envelope) error {
		received <- env
		return nil
	}))

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	err := NewPublisher(bus).Publish(ctx,
		domain.OrderCreated{BaseEvent: domain.BaseEvent{Timestamp: now}, OrderID: "ORD-001", Status: domain.StatusAtTeam},
		domain.StatusChanged{BaseEvent: domain.BaseEvent{Timestamp: now}, OrderID: "ORD-001", FromStatus: domain.StatusAtTeam, ToStatus: domain.StatusAtDigitizer},
	)
	require.NoError(t, err)

	first := <-received
	require.Equal(t, "orders.order.created", first.Name)
	require.Equal(t, "ORD-001", first.AggregateID)
	require.True(t, now.Equal(first.OccurredAt))

	second := <-received
	require.Equal(t, "orders.order.status_changed", second.Name)
	var data map[string]any
	require.NoError(t, json.Unmarshal(second.Data, &data))
	require.Equal(t, string(domain.StatusAtDigitizer), data["ToStatus"])
}

func TestPublisher_NoEventsIsNoop(t *testing.T) {
	bus := NewGoChannel(nil)
	defer bus.Close()
	require.NoError(t, NewPublisher(bus).Publish(context.Background()))
}

func TestAuditLog_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := AuditLog(logger)(context.Background(), Envelope{Name: "orders.note.added", AggregateID: "ORD-007", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"event":"orders.note.added"`)
	require.Contains(t, buf.String(), `"order.id":"ORD-007"`)
}
