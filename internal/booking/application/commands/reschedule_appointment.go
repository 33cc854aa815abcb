package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/pkg/observability"
	"github.com/google/uuid"
)

// RescheduleAppointmentCommand moves an appointment to a new slot.
type RescheduleAppointmentCommand struct {
	AppointmentID uuid.UUID
	Start         time.Time
	End           time.Time
	ActorID       uuid.UUID
}

// RescheduleAppointmentResult reports the old and new slot.
type RescheduleAppointmentResult struct {
	AppointmentID uuid.UUID
	OldStart      time.Time
	NewStart      time.Time
	NewEnd        time.Time
}

// RescheduleAppointmentHandler handles the RescheduleAppointmentCommand.
type RescheduleAppointmentHandler struct {
	deps Dependencies
}

// NewRescheduleAppointmentHandler creates a new RescheduleAppointmentHandler.
func NewRescheduleAppointmentHandler(deps Dependencies) *RescheduleAppointmentHandler {
	return &RescheduleAppointmentHandler{deps: deps.withDefaults()}
}

// Handle locks the appointment, then checks and moves it in one serializable
// unit of work. The appointment's own slot is ignored by the conflict check.
func (h *RescheduleAppointmentHandler) Handle(ctx context.Context, cmd RescheduleAppointmentCommand) (*RescheduleAppointmentResult, error) {
	candidate, err := domain.NewTimeRange(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}

	var result *RescheduleAppointmentResult
	policy := sharedApplication.RetryPolicy{MaxAttempts: h.deps.MaxAttempts, Retryable: h.deps.Retryable}
	err = sharedApplication.WithLock(ctx, h.deps.Locker, lockKey(cmd.AppointmentID), h.deps.LockTTL, func(ctx context.Context) error {
		return sharedApplication.WithRetryingUnitOfWork(ctx, h.deps.UnitOfWork, policy, func(txCtx context.Context) error {
			appt, err := h.deps.Appointments.FindByID(txCtx, cmd.AppointmentID)
			if err != nil {
				return err
			}
			if !appt.CanReschedule() {
				return domain.ErrCannotReschedule
			}
			id := appt.ID()
			if err := checkSlot(txCtx, h.deps, appt.ShopID(), candidate, &id); err != nil {
				return err
			}

			old := appt.StartTime()
			if err := appt.Reschedule(candidate); err != nil {
				return err
			}
			if err := h.deps.Appointments.Save(txCtx, appt); err != nil {
				return err
			}
			if err := publish(txCtx, h.deps.Outbox, appt, cmd.ActorID); err != nil {
				return err
			}
			result = &RescheduleAppointmentResult{
				AppointmentID: id,
				OldStart:      old,
				NewStart:      appt.StartTime(),
				NewEnd:        appt.EndTime(),
			}
			return nil
		})
	})
	if err = storageConflict(err, candidate); err != nil {
		return nil, err
	}

	h.deps.Metrics.Counter(observability.MetricAppointmentRescheduled, 1)
	h.deps.Logger.InfoContext(ctx, "appointment rescheduled",
		"appointment_id", result.AppointmentID,
		"old_start", result.OldStart,
		"new_start", result.NewStart,
	)
	return result, nil
}
