package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/pkg/observability"
	"github.com/google/uuid"
)

// TransitionAction names a lifecycle step of an appointment.
type TransitionAction string

const (
	ActionConfirm  TransitionAction = "confirm"
	ActionStart    TransitionAction = "start"
	ActionComplete TransitionAction = "complete"
	ActionCancel   TransitionAction = "cancel"
	ActionNoShow   TransitionAction = "no-show"
	ActionRebook   TransitionAction = "rebook"
)

// TransitionAppointmentCommand moves one appointment through its lifecycle.
type TransitionAppointmentCommand struct {
	AppointmentID uuid.UUID
	Action        TransitionAction
	Reason        string
	ActorID       uuid.UUID
}

// TransitionAppointmentResult reports the move that happened.
type TransitionAppointmentResult struct {
	AppointmentID uuid.UUID
	From          domain.Status
	To            domain.Status
}

// TransitionAppointmentHandler handles the TransitionAppointmentCommand.
type TransitionAppointmentHandler struct {
	deps Dependencies
}

// NewTransitionAppointmentHandler creates a new TransitionAppointmentHandler.
func NewTransitionAppointmentHandler(deps Dependencies) *TransitionAppointmentHandler {
	return &TransitionAppointmentHandler{deps: deps.withDefaults()}
}

// Handle holds the appointment lock for the whole load-transition-save cycle.
// A move that makes the appointment occupy its slot again, such as rebooking
// a no-show, runs the conflict check in the same serializable unit of work.
func (h *TransitionAppointmentHandler) Handle(ctx context.Context, cmd TransitionAppointmentCommand) (*TransitionAppointmentResult, error) {
	var (
		result   *TransitionAppointmentResult
		interval domain.TimeRange
	)
	policy := sharedApplication.RetryPolicy{MaxAttempts: h.deps.MaxAttempts, Retryable: h.deps.Retryable}
	err := sharedApplication.WithLock(ctx, h.deps.Locker, lockKey(cmd.AppointmentID), h.deps.LockTTL, func(ctx context.Context) error {
		return sharedApplication.WithRetryingUnitOfWork(ctx, h.deps.UnitOfWork, policy, func(txCtx context.Context) error {
			appt, err := h.deps.Appointments.FindByID(txCtx, cmd.AppointmentID)
			if err != nil {
				return err
			}
			interval = appt.Interval()
			from := appt.Status()
			if err := apply(appt, cmd.Action, cmd.Reason); err != nil {
				return err
			}
			if h.reclaimsSlot(from, appt.Status()) {
				id := appt.ID()
				if err := checkConflicts(txCtx, h.deps, appt.ShopID(), interval, &id); err != nil {
					return err
				}
			}
			if err := h.deps.Appointments.Save(txCtx, appt); err != nil {
				return err
			}
			if err := publish(txCtx, h.deps.Outbox, appt, cmd.ActorID); err != nil {
				return err
			}
			result = &TransitionAppointmentResult{AppointmentID: appt.ID(), From: from, To: appt.Status()}
			return nil
		})
	})
	if err = storageConflict(err, interval); err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			h.deps.Metrics.Counter(observability.MetricBookingConflicts, 1)
			h.deps.Logger.InfoContext(ctx, "transition rejected",
				"appointment_id", cmd.AppointmentID, "action", cmd.Action, "error", err)
		}
		return nil, err
	}

	h.deps.Metrics.Counter(observability.MetricAppointmentTransitions, 1,
		observability.T("from", string(result.From)),
		observability.T("to", string(result.To)),
	)
	h.deps.Logger.InfoContext(ctx, "appointment status changed",
		"appointment_id", result.AppointmentID,
		"from", result.From,
		"to", result.To,
	)
	return result, nil
}

// reclaimsSlot reports whether moving from one status to another makes a
// booking block its slot again.
func (h *TransitionAppointmentHandler) reclaimsSlot(from, to domain.Status) bool {
	p := h.deps.Detector.Policy()
	return !p.IsActive(from) && p.IsActive(to)
}

// ErrUnknownAction is returned by ParseAction for unrecognized input.
var ErrUnknownAction = errors.New("unknown action")

// ParseAction accepts the CLI spelling of an action.
func ParseAction(s string) (TransitionAction, error) {
	a := TransitionAction(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-")))
	switch a {
	case ActionConfirm, ActionStart, ActionComplete, ActionCancel, ActionNoShow, ActionRebook:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

func apply(appt *domain.Appointment, action TransitionAction, reason string) error {
	switch action {
	case ActionConfirm:
		return appt.Confirm()
	case ActionStart:
		return appt.Start()
	case ActionComplete:
		return appt.Complete()
	case ActionCancel:
		return appt.Cancel(reason)
	case ActionNoShow:
		return appt.MarkNoShow()
	case ActionRebook:
		return appt.Rebook()
	}
	return fmt.Errorf("unknown action %q", action)
}
