package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/google/uuid"
)

// AppointmentDTO is a data transfer object for appointments.
type AppointmentDTO struct {
	ID                 uuid.UUID
	ShopID             uuid.UUID
	PetID              uuid.UUID
	CustomerID         uuid.UUID
	Service            string
	Start              time.Time
	End                time.Time
	DurationMinutes    int
	Status             string
	Vocabulary         string
	Notes              string
	CancellationReason string
	Allowed            []string
	Version            int
}

// GetAppointmentQuery asks for one appointment.
type GetAppointmentQuery struct {
	AppointmentID uuid.UUID
}

// ListAppointmentsQuery asks for a shop's appointments starting in [From, To).
type ListAppointmentsQuery struct {
	ShopID uuid.UUID
	From   time.Time
	To     time.Time
	// Status filters the result when set.
	Status domain.Status
}

// AppointmentsHandler serves appointment reads.
type AppointmentsHandler struct {
	repo domain.AppointmentRepository
}

// NewAppointmentsHandler creates a new AppointmentsHandler.
func NewAppointmentsHandler(repo domain.AppointmentRepository) *AppointmentsHandler {
	return &AppointmentsHandler{repo: repo}
}

// Get returns one appointment.
func (h *AppointmentsHandler) Get(ctx context.Context, q GetAppointmentQuery) (*AppointmentDTO, error) {
	appt, err := h.repo.FindByID(ctx, q.AppointmentID)
	if err != nil {
		return nil, err
	}
	return ToAppointmentDTO(appt), nil
}

// List returns the shop's appointments in the range ordered by start.
func (h *AppointmentsHandler) List(ctx context.Context, q ListAppointmentsQuery) ([]AppointmentDTO, error) {
	appts, err := h.repo.ListByShopAndRange(ctx, q.ShopID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	dtos := make([]AppointmentDTO, 0, len(appts))
	for _, a := range appts {
		if q.Status != "" && a.Status() != q.Status {
			continue
		}
		dtos = append(dtos, *ToAppointmentDTO(a))
	}
	return dtos, nil
}

// ToAppointmentDTO flattens an appointment for display.
func ToAppointmentDTO(a *domain.Appointment) *AppointmentDTO {
	allowed := a.Vocabulary().Allowed(a.Status())
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return &AppointmentDTO{
		ID:                 a.ID(),
		ShopID:             a.ShopID(),
		PetID:              a.PetID(),
		CustomerID:         a.CustomerID(),
		Service:            a.Service(),
		Start:              a.StartTime(),
		End:                a.EndTime(),
		DurationMinutes:    int(a.Interval().Duration().Minutes()),
		Status:             string(a.Status()),
		Vocabulary:         a.Vocabulary().Name(),
		Notes:              a.Notes(),
		CancellationReason: a.CancellationReason(),
		Allowed:            names,
		Version:            a.Version(),
	}
}
