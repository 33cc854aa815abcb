package api

import (
	"time"

	"github.com/google/uuid"

	availabilityQueries "github.com/felixgeelhaar/groomly/internal/availability/application/queries"
	bookingQueries "github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
)

// WindowRequest is one weekday window. Day is 0 (Sunday) to 6.
type WindowRequest struct {
	Day   int    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// SetHoursRequest replaces a shop's weekly hours.
type SetHoursRequest struct {
	Timezone string          `json:"timezone"`
	Windows  []WindowRequest `json:"windows"`
}

// ClosureRequest closes a shop on one date (YYYY-MM-DD).
type ClosureRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// BookRequest books an appointment.
type BookRequest struct {
	ShopID     uuid.UUID `json:"shop_id"`
	PetID      uuid.UUID `json:"pet_id"`
	CustomerID uuid.UUID `json:"customer_id,omitempty"`
	Service    string    `json:"service"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Notes      string    `json:"notes,omitempty"`
}

// TransitionRequest moves an appointment through its lifecycle.
type TransitionRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// RescheduleRequest moves an appointment to a new slot.
type RescheduleRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type windowResponse struct {
	Day             string `json:"day"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

type closureResponse struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

type hoursResponse struct {
	ShopID   uuid.UUID         `json:"shop_id"`
	Timezone string            `json:"timezone"`
	Windows  []windowResponse  `json:"windows"`
	Closures []closureResponse `json:"closures"`
	Version  int               `json:"version"`
}

func fromShopHours(dto *availabilityQueries.ShopHoursDTO) hoursResponse {
	resp := hoursResponse{
		ShopID:   dto.ShopID,
		Timezone: dto.Timezone,
		Windows:  make([]windowResponse, 0, len(dto.Windows)),
		Closures: make([]closureResponse, 0, len(dto.Closures)),
		Version:  dto.Version,
	}
	for _, c := range dto.Closures {
		resp.Closures = append(resp.Closures, closureResponse{Date: c.Date, Reason: c.Reason})
	}
	for _, w := range dto.Windows {
		resp.Windows = append(resp.Windows, windowResponse{
			Day:             w.Day.String(),
			Start:           w.Start,
			End:             w.End,
			DurationMinutes: w.DurationMinutes,
		})
	}
	return resp
}

type appointmentResponse struct {
	ID                 uuid.UUID `json:"id"`
	ShopID             uuid.UUID `json:"shop_id"`
	PetID              uuid.UUID `json:"pet_id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	Service            string    `json:"service"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	DurationMinutes    int       `json:"duration_minutes"`
	Status             string    `json:"status"`
	Vocabulary         string    `json:"vocabulary"`
	Notes              string    `json:"notes,omitempty"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	Allowed            []string  `json:"allowed"`
	Version            int       `json:"version"`
}

func fromAppointment(dto *bookingQueries.AppointmentDTO) appointmentResponse {
	return appointmentResponse{
		ID:                 dto.ID,
		ShopID:             dto.ShopID,
		PetID:              dto.PetID,
		CustomerID:         dto.CustomerID,
		Service:            dto.Service,
		Start:              dto.Start,
		End:                dto.End,
		DurationMinutes:    dto.DurationMinutes,
		Status:             dto.Status,
		Vocabulary:         dto.Vocabulary,
		Notes:              dto.Notes,
		CancellationReason: dto.CancellationReason,
		Allowed:            dto.Allowed,
		Version:            dto.Version,
	}
}

type conflictResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
}

type slotConflictBody struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	Conflicts []conflictResponse `json:"conflicts"`
}

func fromBookedIntervals(in []bookingDomain.BookedInterval) []conflictResponse {
	out := make([]conflictResponse, 0, len(in))
	for _, b := range in {
		out = append(out, conflictResponse{
			AppointmentID: b.AppointmentID,
			Start:         b.Range.Start(),
			End:           b.Range.End(),
			Status:        string(b.Status),
		})
	}
	return out
}
