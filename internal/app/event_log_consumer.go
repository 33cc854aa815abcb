package app

import (
	"context"
	"log/slog"

	availabilityDomain "github.com/felixgeelhaar/groomly/internal/availability/domain"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/eventbus"
)

// EventLogConsumer logs every groomly event. In local mode it is the only
// subscriber of the in-process bus.
type EventLogConsumer struct {
	logger *slog.Logger
}

// NewEventLogConsumer creates a logging consumer.
func NewEventLogConsumer(logger *slog.Logger) *EventLogConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogConsumer{logger: logger}
}

// EventTypes returns the routing keys this consumer handles.
func (c *EventLogConsumer) EventTypes() []string {
	return []string{
		availabilityDomain.RoutingKeyHoursSet,
		availabilityDomain.RoutingKeyClosureAdded,
		availabilityDomain.RoutingKeyClosureRemoved,
		bookingDomain.RoutingKeyAppointmentBooked,
		bookingDomain.RoutingKeyAppointmentStatusChanged,
		bookingDomain.RoutingKeyAppointmentRescheduled,
	}
}

// Handle logs the envelope.
func (c *EventLogConsumer) Handle(ctx context.Context, event *eventbus.Envelope) error {
	c.logger.InfoContext(ctx, "event",
		"routing_key", event.RoutingKey,
		"aggregate_type", event.AggregateType,
		"aggregate_id", event.AggregateID,
		"event_id", event.EventID,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}
