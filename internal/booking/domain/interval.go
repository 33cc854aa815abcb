package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeRange is an absolute half-open interval [Start, End).
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange validates start < end.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !end.After(start) {
		return TimeRange{}, fmt.Errorf("%w: %s - %s", ErrInvalidInterval,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeRange{start: start, end: end}, nil
}

// NewTimeRangeFor builds [start, start+d).
func NewTimeRangeFor(start time.Time, d time.Duration) (TimeRange, error) {
	return NewTimeRange(start, start.Add(d))
}

func (r TimeRange) Start() time.Time        { return r.start }
func (r TimeRange) End() time.Time          { return r.end }
func (r TimeRange) Duration() time.Duration { return r.end.Sub(r.start) }
func (r TimeRange) IsZero() bool            { return r.start.IsZero() && r.end.IsZero() }

// UTC returns the same range with both ends in UTC.
func (r TimeRange) UTC() TimeRange {
	return TimeRange{start: r.start.UTC(), end: r.end.UTC()}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.start.Format(time.RFC3339), r.end.Format(time.RFC3339))
}

// BookedInterval is the part of an appointment the conflict detector sees.
type BookedInterval struct {
	AppointmentID uuid.UUID
	Range         TimeRange
	Status        Status
}
