package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// InProcessEventBus delivers envelopes synchronously to local consumers. It
// stands in for RabbitMQ when groomly runs against SQLite.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates a new in-process event bus.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes the envelope and dispatches it. Consumer failures are
// returned so the outbox retries the message.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var event Envelope
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode envelope for %s: %w", routingKey, err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	if err := b.registry.Dispatch(ctx, &event); err != nil {
		return err
	}

	b.logger.DebugContext(ctx, "event dispatched", "routing_key", routingKey, "event_id", event.EventID)
	return nil
}

// Close is a no-op.
func (b *InProcessEventBus) Close() error {
	return nil
}
