package commands

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/pkg/observability"
	"github.com/google/uuid"
)

// BookAppointmentCommand contains the data needed to book an appointment.
type BookAppointmentCommand struct {
	ShopID     uuid.UUID
	PetID      uuid.UUID
	CustomerID uuid.UUID
	Service    string
	Start      time.Time
	End        time.Time
	Notes      string
	ActorID    uuid.UUID
}

// BookAppointmentResult contains the result of booking an appointment.
type BookAppointmentResult struct {
	AppointmentID uuid.UUID
	Status        domain.Status
	Start         time.Time
	End           time.Time
	Attempts      int
}

// BookAppointmentHandler handles the BookAppointmentCommand.
type BookAppointmentHandler struct {
	deps Dependencies
}

// NewBookAppointmentHandler creates a new BookAppointmentHandler.
func NewBookAppointmentHandler(deps Dependencies) *BookAppointmentHandler {
	return &BookAppointmentHandler{deps: deps.withDefaults()}
}

// Handle checks the slot and inserts the appointment in one serializable
// unit of work, replaying it when the database reports a serialization failure.
func (h *BookAppointmentHandler) Handle(ctx context.Context, cmd BookAppointmentCommand) (*BookAppointmentResult, error) {
	timer := observability.StartTimer("book_appointment").
		WithLogger(h.deps.Logger).
		WithMetrics(h.deps.Metrics)

	candidate, err := domain.NewTimeRange(cmd.Start, cmd.End)
	if err != nil {
		timer.StopWithError(err)
		return nil, err
	}
	details := domain.AppointmentDetails{
		ShopID:     cmd.ShopID,
		PetID:      cmd.PetID,
		CustomerID: cmd.CustomerID,
		Service:    cmd.Service,
		Notes:      cmd.Notes,
	}

	var (
		result   *BookAppointmentResult
		attempts int
	)
	policy := sharedApplication.RetryPolicy{MaxAttempts: h.deps.MaxAttempts, Retryable: h.deps.Retryable}
	err = sharedApplication.WithRetryingUnitOfWork(ctx, h.deps.UnitOfWork, policy, func(txCtx context.Context) error {
		attempts++
		if attempts > 1 {
			h.deps.Metrics.Counter(observability.MetricBookingRetries, 1)
		}

		appt, err := domain.NewAppointment(details, candidate, h.deps.Vocabulary)
		if err != nil {
			return err
		}
		if err := checkSlot(txCtx, h.deps, cmd.ShopID, candidate, nil); err != nil {
			return err
		}
		if err := h.deps.Appointments.Save(txCtx, appt); err != nil {
			return err
		}
		if err := publish(txCtx, h.deps.Outbox, appt, cmd.ActorID); err != nil {
			return err
		}

		result = &BookAppointmentResult{
			AppointmentID: appt.ID(),
			Status:        appt.Status(),
			Start:         appt.StartTime(),
			End:           appt.EndTime(),
		}
		return nil
	})
	err = storageConflict(err, candidate)
	timer.StopWithError(err)
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			h.deps.Metrics.Counter(observability.MetricBookingConflicts, 1)
			h.deps.Logger.InfoContext(ctx, "booking rejected",
				"shop_id", cmd.ShopID, "start", cmd.Start, "end", cmd.End, "error", err)
		}
		return nil, err
	}

	result.Attempts = attempts
	h.deps.Metrics.Counter(observability.MetricAppointmentsBooked, 1, observability.T("service", cmd.Service))
	h.deps.Logger.InfoContext(ctx, "appointment booked",
		"appointment_id", result.AppointmentID,
		"shop_id", cmd.ShopID,
		"start", result.Start,
		"attempts", attempts,
	)
	return result, nil
}
