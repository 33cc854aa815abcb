package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	// Save inserts a new appointment or updates an existing one. Updates
	// compare the loaded version and fail with ErrConcurrentModification.
	Save(ctx context.Context, appointment *Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// FindActiveOverlapping returns bookings of shopID whose status is in
	// active and whose range touches or overlaps interval. The comparison is
	// inclusive on both ends; ConflictDetector decides the boundaries.
	FindActiveOverlapping(ctx context.Context, shopID uuid.UUID, interval TimeRange, active []Status, excludeID *uuid.UUID) ([]BookedInterval, error)
	// ListByShopAndRange returns appointments starting in [from, to), ordered by start.
	ListByShopAndRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]*Appointment, error)
}
