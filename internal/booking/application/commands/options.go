package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/groomly/pkg/observability"
	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds replays of a booking transaction that lost a
// serialization race.
const DefaultMaxAttempts = 3

// DefaultLockTTL is the lease taken on one appointment while it changes.
const DefaultLockTTL = 10 * time.Second

// OpeningHours tells booking whether a range sits inside the shop's hours.
type OpeningHours interface {
	CoversRange(ctx context.Context, shopID uuid.UUID, start, end time.Time) (bool, error)
}

// Dependencies are shared by every booking command handler.
type Dependencies struct {
	Appointments domain.AppointmentRepository
	Outbox       outbox.Repository
	// UnitOfWork must run at serializable isolation (or on a single-writer
	// store) for the conflict check and insert to be atomic.
	UnitOfWork   sharedApplication.UnitOfWork
	Locker       sharedApplication.Locker
	Detector     *domain.ConflictDetector
	Vocabulary   *domain.StatusVocabulary
	OpeningHours OpeningHours
	Metrics      observability.Metrics
	Logger       *slog.Logger

	MaxAttempts int
	LockTTL     time.Duration
	// Retryable classifies errors worth replaying the transaction for.
	Retryable func(error) bool
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Detector == nil {
		d.Detector = domain.NewConflictDetector(domain.DefaultConflictPolicy())
	}
	if d.Vocabulary == nil {
		d.Vocabulary = domain.ExtendedVocabulary()
	}
	if d.Locker == nil {
		d.Locker = lock.NewMemoryLocker()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NoopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = DefaultMaxAttempts
	}
	if d.LockTTL <= 0 {
		d.LockTTL = DefaultLockTTL
	}
	if d.Retryable == nil {
		d.Retryable = database.IsSerializationFailure
	}
	return d
}

func lockKey(id uuid.UUID) string {
	return "appointment:" + id.String()
}

func publish(ctx context.Context, repo outbox.Repository, appt *domain.Appointment, actorID uuid.UUID) error {
	events := appt.DomainEvents()
	sharedApplication.StampEvents(ctx, events, actorID)
	if err := outbox.Enqueue(ctx, repo, events); err != nil {
		return err
	}
	appt.ClearDomainEvents()
	return nil
}

// checkSlot loads overlapping bookings and runs the detector. It must be
// called inside the unit of work that writes the appointment.
func checkSlot(ctx context.Context, deps Dependencies, shopID uuid.UUID, candidate domain.TimeRange, excludeID *uuid.UUID) error {
	if deps.OpeningHours != nil {
		ok, err := deps.OpeningHours.CoversRange(ctx, shopID, candidate.Start(), candidate.End())
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrOutsideOpeningHours
		}
	}
	return checkConflicts(ctx, deps, shopID, candidate, excludeID)
}

// checkConflicts runs the detector against the stored bookings of every
// vocabulary, so rows booked before a vocabulary switch still count.
func checkConflicts(ctx context.Context, deps Dependencies, shopID uuid.UUID, candidate domain.TimeRange, excludeID *uuid.UUID) error {
	active := deps.Detector.Policy().ActiveStatuses()
	existing, err := deps.Appointments.FindActiveOverlapping(ctx, shopID, candidate, active, excludeID)
	if err != nil {
		return err
	}
	if conflicts := deps.Detector.Detect(candidate, existing); len(conflicts) > 0 {
		return &domain.SlotConflictError{Candidate: candidate, Conflicts: conflicts}
	}
	return nil
}

// storageConflict maps an exclusion-constraint rejection to a slot conflict.
func storageConflict(err error, candidate domain.TimeRange) error {
	if database.IsExclusionViolation(err) {
		return &domain.SlotConflictError{Candidate: candidate}
	}
	return err
}
