package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/google/uuid"
)

// CheckConflictsQuery asks whether a range is free at a shop.
type CheckConflictsQuery struct {
	ShopID    uuid.UUID
	Start     time.Time
	End       time.Time
	ExcludeID *uuid.UUID
}

// ConflictDTO is one blocking booking.
type ConflictDTO struct {
	AppointmentID uuid.UUID
	Start         time.Time
	End           time.Time
	Status        string
}

// CheckConflictsResult answers CheckConflictsQuery. It is advisory: a
// booking made later still runs its own check in a transaction.
type CheckConflictsResult struct {
	Available bool
	Conflicts []ConflictDTO
}

// CheckConflictsHandler runs the detector outside of any write.
type CheckConflictsHandler struct {
	repo     domain.AppointmentRepository
	detector *domain.ConflictDetector
}

// NewCheckConflictsHandler creates a new CheckConflictsHandler.
func NewCheckConflictsHandler(repo domain.AppointmentRepository, detector *domain.ConflictDetector) *CheckConflictsHandler {
	if detector == nil {
		detector = domain.NewConflictDetector(domain.DefaultConflictPolicy())
	}
	return &CheckConflictsHandler{repo: repo, detector: detector}
}

// Handle returns the conflicting subset for the range.
func (h *CheckConflictsHandler) Handle(ctx context.Context, q CheckConflictsQuery) (*CheckConflictsResult, error) {
	candidate, err := domain.NewTimeRange(q.Start, q.End)
	if err != nil {
		return nil, err
	}
	active := h.detector.Policy().ActiveStatuses()
	existing, err := h.repo.FindActiveOverlapping(ctx, q.ShopID, candidate, active, q.ExcludeID)
	if err != nil {
		return nil, err
	}

	conflicts := h.detector.Detect(candidate, existing)
	result := &CheckConflictsResult{Available: len(conflicts) == 0}
	for _, c := range conflicts {
		result.Conflicts = append(result.Conflicts, ConflictDTO{
			AppointmentID: c.AppointmentID,
			Start:         c.Range.Start(),
			End:           c.Range.End(),
			Status:        string(c.Status),
		})
	}
	return result, nil
}
