package persistence

import (
	"time"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/google/uuid"
)

var appointmentColumns = []string{
	"id", "shop_id", "pet_id", "customer_id", "service", "start_time", "end_time",
	"status", "vocabulary", "notes", "cancellation_reason", "version", "created_at", "updated_at",
}

// appointmentRow is the storage shape shared by both drivers.
type appointmentRow struct {
	ID                 uuid.UUID
	ShopID             uuid.UUID
	PetID              uuid.UUID
	CustomerID         uuid.UUID
	Service            string
	StartTime          time.Time
	EndTime            time.Time
	Status             string
	Vocabulary         string
	Notes              string
	CancellationReason string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r appointmentRow) toDomain() (*domain.Appointment, error) {
	vocabulary, err := domain.VocabularyByName(r.Vocabulary)
	if err != nil {
		return nil, err
	}
	status, err := vocabulary.Parse(r.Status)
	if err != nil {
		return nil, err
	}
	interval, err := domain.NewTimeRange(r.StartTime.UTC(), r.EndTime.UTC())
	if err != nil {
		return nil, err
	}
	return domain.RehydrateAppointment(
		r.ID,
		domain.AppointmentDetails{
			ShopID:     r.ShopID,
			PetID:      r.PetID,
			CustomerID: r.CustomerID,
			Service:    r.Service,
			Notes:      r.Notes,
		},
		interval,
		status,
		vocabulary,
		r.CancellationReason,
		r.Version,
		r.CreatedAt,
		r.UpdatedAt,
	), nil
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
