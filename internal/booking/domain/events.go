package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/groomly/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Appointment"

	RoutingKeyAppointmentBooked        = "booking.appointment.booked"
	RoutingKeyAppointmentStatusChanged = "booking.appointment.status_changed"
	RoutingKeyAppointmentRescheduled   = "booking.appointment.rescheduled"
)

// AppointmentBooked is emitted when an appointment is created
type AppointmentBooked struct {
	sharedDomain.BaseEvent
	ShopID     uuid.UUID `json:"shop_id"`
	PetID      uuid.UUID `json:"pet_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Service    string    `json:"service"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
}

// NewAppointmentBooked creates an AppointmentBooked event
func NewAppointmentBooked(a *Appointment) *AppointmentBooked {
	return &AppointmentBooked{
		BaseEvent:  sharedDomain.NewBaseEvent(a.ID(), AggregateType, RoutingKeyAppointmentBooked),
		ShopID:     a.ShopID(),
		PetID:      a.PetID(),
		CustomerID: a.CustomerID(),
		Service:    a.Service(),
		StartTime:  a.StartTime(),
		EndTime:    a.EndTime(),
		Status:     string(a.Status()),
	}
}

// AppointmentStatusChanged is emitted on every accepted transition
type AppointmentStatusChanged struct {
	sharedDomain.BaseEvent
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// NewAppointmentStatusChanged creates an AppointmentStatusChanged event
func NewAppointmentStatusChanged(appointmentID uuid.UUID, from, to Status, reason string) *AppointmentStatusChanged {
	return &AppointmentStatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(appointmentID, AggregateType, RoutingKeyAppointmentStatusChanged),
		From:      string(from),
		To:        string(to),
		Reason:    reason,
	}
}

// AppointmentRescheduled is emitted when an appointment moves to a new slot
type AppointmentRescheduled struct {
	sharedDomain.BaseEvent
	OldStartTime time.Time `json:"old_start_time"`
	OldEndTime   time.Time `json:"old_end_time"`
	NewStartTime time.Time `json:"new_start_time"`
	NewEndTime   time.Time `json:"new_end_time"`
}

// NewAppointmentRescheduled creates an AppointmentRescheduled event
func NewAppointmentRescheduled(appointmentID uuid.UUID, old, next TimeRange) *AppointmentRescheduled {
	return &AppointmentRescheduled{
		BaseEvent:    sharedDomain.NewBaseEvent(appointmentID, AggregateType, RoutingKeyAppointmentRescheduled),
		OldStartTime: old.Start(),
		OldEndTime:   old.End(),
		NewStartTime: next.Start(),
		NewEndTime:   next.End(),
	}
}
