package application

import (
	"context"

	"github.com/felixgeelhaar/groomly/internal/shared/domain"
	"github.com/felixgeelhaar/groomly/pkg/observability"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// StampEvents attaches one command's metadata to every event that accepts it
// and returns that metadata. The correlation ID is taken from ctx, or freshly
// generated when ctx has none. A nil actorID falls back to the actor in ctx.
func StampEvents(ctx context.Context, events []domain.DomainEvent, actorID uuid.UUID) domain.EventMetadata {
	correlationID := observability.CorrelationUUIDFromContext(ctx)
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	if actorID == uuid.Nil {
		if parsed, err := uuid.Parse(observability.ActorIDFromContext(ctx)); err == nil {
			actorID = parsed
		}
	}

	metadata := domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   uuid.New(),
		ActorID:       actorID,
	}
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
	return metadata
}
