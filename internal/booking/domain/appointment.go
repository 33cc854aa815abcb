package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/groomly/internal/shared/domain"
	"github.com/google/uuid"
)

// Appointment is a grooming booking for one pet at one shop.
type Appointment struct {
	sharedDomain.BaseAggregateRoot
	shopID             uuid.UUID
	petID              uuid.UUID
	customerID         uuid.UUID
	service            string
	interval           TimeRange
	status             Status
	vocabulary         *StatusVocabulary
	notes              string
	cancellationReason string
}

// AppointmentDetails groups the descriptive fields of a new appointment.
type AppointmentDetails struct {
	ShopID     uuid.UUID
	PetID      uuid.UUID
	CustomerID uuid.UUID
	Service    string
	Notes      string
}

// NewAppointment books details over interval in the vocabulary's initial status.
func NewAppointment(details AppointmentDetails, interval TimeRange, vocabulary *StatusVocabulary) (*Appointment, error) {
	if details.ShopID == uuid.Nil {
		return nil, ErrMissingShopID
	}
	if details.PetID == uuid.Nil {
		return nil, ErrMissingPetID
	}
	service := strings.TrimSpace(details.Service)
	if service == "" {
		return nil, ErrMissingService
	}
	if interval.IsZero() || !interval.end.After(interval.start) {
		return nil, ErrInvalidInterval
	}
	if vocabulary == nil {
		vocabulary = ExtendedVocabulary()
	}

	a := &Appointment{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		shopID:            details.ShopID,
		petID:             details.PetID,
		customerID:        details.CustomerID,
		service:           service,
		interval:          interval.UTC(),
		status:            vocabulary.Initial(),
		vocabulary:        vocabulary,
		notes:             details.Notes,
	}
	a.AddDomainEvent(NewAppointmentBooked(a))
	return a, nil
}

// RehydrateAppointment recreates an appointment from persisted state.
func RehydrateAppointment(
	id uuid.UUID,
	details AppointmentDetails,
	interval TimeRange,
	status Status,
	vocabulary *StatusVocabulary,
	cancellationReason string,
	version int,
	createdAt, updatedAt time.Time,
) *Appointment {
	if vocabulary == nil {
		vocabulary = ExtendedVocabulary()
	}
	return &Appointment{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), version,
		),
		shopID:             details.ShopID,
		petID:              details.PetID,
		customerID:         details.CustomerID,
		service:            details.Service,
		interval:           interval,
		status:             status,
		vocabulary:         vocabulary,
		notes:              details.Notes,
		cancellationReason: cancellationReason,
	}
}

// Getters
func (a *Appointment) ShopID() uuid.UUID             { return a.shopID }
func (a *Appointment) PetID() uuid.UUID              { return a.petID }
func (a *Appointment) CustomerID() uuid.UUID         { return a.customerID }
func (a *Appointment) Service() string               { return a.service }
func (a *Appointment) Interval() TimeRange           { return a.interval }
func (a *Appointment) StartTime() time.Time          { return a.interval.start }
func (a *Appointment) EndTime() time.Time            { return a.interval.end }
func (a *Appointment) Status() Status                { return a.status }
func (a *Appointment) Vocabulary() *StatusVocabulary { return a.vocabulary }
func (a *Appointment) Notes() string                 { return a.notes }
func (a *Appointment) CancellationReason() string    { return a.cancellationReason }
func (a *Appointment) IsTerminal() bool              { return a.vocabulary.IsTerminal(a.status) }
func (a *Appointment) Details() AppointmentDetails {
	return AppointmentDetails{
		ShopID:     a.shopID,
		PetID:      a.petID,
		CustomerID: a.customerID,
		Service:    a.service,
		Notes:      a.notes,
	}
}

// BookedInterval is the view handed to the conflict detector.
func (a *Appointment) BookedInterval() BookedInterval {
	return BookedInterval{AppointmentID: a.ID(), Range: a.interval, Status: a.status}
}

// Transition moves the appointment to target if its vocabulary allows it.
func (a *Appointment) Transition(target Status) error {
	return a.transition(target, "")
}

func (a *Appointment) transition(target Status, reason string) error {
	from := a.status
	next, err := a.vocabulary.Transition(from, target)
	if err != nil {
		return err
	}
	a.status = next
	if next == a.vocabulary.Cancelled() {
		a.cancellationReason = reason
	}
	a.Touch()
	a.AddDomainEvent(NewAppointmentStatusChanged(a.ID(), from, next, reason))
	return nil
}

// Confirm moves a scheduled appointment to CONFIRMED.
func (a *Appointment) Confirm() error { return a.Transition(StatusConfirmed) }

// Start marks the pet as being groomed.
func (a *Appointment) Start() error { return a.Transition(StatusInProgress) }

// Complete marks the grooming as done.
func (a *Appointment) Complete() error { return a.Transition(StatusCompleted) }

// MarkNoShow records that the pet never arrived.
func (a *Appointment) MarkNoShow() error { return a.Transition(StatusNoShow) }

// Rebook returns a no-show to SCHEDULED.
func (a *Appointment) Rebook() error { return a.Transition(StatusScheduled) }

// Cancel moves the appointment to the vocabulary's cancelled status.
func (a *Appointment) Cancel(reason string) error {
	return a.transition(a.vocabulary.Cancelled(), strings.TrimSpace(reason))
}

// CanReschedule is true while the appointment is scheduled or confirmed.
func (a *Appointment) CanReschedule() bool {
	return a.status == StatusScheduled || a.status == StatusConfirmed
}

// Reschedule moves the appointment to interval. Conflict checks are the
// caller's job.
func (a *Appointment) Reschedule(interval TimeRange) error {
	if !a.CanReschedule() {
		return ErrCannotReschedule
	}
	if interval.IsZero() || !interval.end.After(interval.start) {
		return ErrInvalidInterval
	}
	old := a.interval
	a.interval = interval.UTC()
	a.Touch()
	a.AddDomainEvent(NewAppointmentRescheduled(a.ID(), old, a.interval))
	return nil
}
