package domain

import (
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/groomly/internal/shared/domain"
	"github.com/google/uuid"
)

// ShopHours is the opening pattern of one shop: weekly windows read in the
// shop's timezone, suspended on closure dates. Its ID is the shop ID.
type ShopHours struct {
	sharedDomain.BaseAggregateRoot
	location     *time.Location
	availability AvailabilityWithExceptions
	reasons      map[Date]string
}

// Closure is a closed date with the reason given for it.
type Closure struct {
	Date   Date
	Reason string
}

// LoadLocation resolves an IANA timezone name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// NewShopHours creates opening hours for shopID.
func NewShopHours(shopID uuid.UUID, weekly WeeklyAvailability, location *time.Location) (*ShopHours, error) {
	if shopID == uuid.Nil {
		return nil, ErrMissingShopID
	}
	if location == nil {
		location = time.UTC
	}
	availability, err := NewAvailabilityWithExceptionDates(weekly)
	if err != nil {
		return nil, err
	}

	h := &ShopHours{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRootWithID(shopID),
		location:          location,
		availability:      availability,
		reasons:           make(map[Date]string),
	}
	h.AddDomainEvent(NewHoursSet(h))
	return h, nil
}

// RehydrateShopHours recreates ShopHours from persisted state. Reasons for
// dates that are not closures are dropped.
func RehydrateShopHours(
	shopID uuid.UUID,
	location *time.Location,
	availability AvailabilityWithExceptions,
	reasons map[Date]string,
	version int,
	createdAt, updatedAt time.Time,
) *ShopHours {
	if location == nil {
		location = time.UTC
	}
	kept := make(map[Date]string, len(reasons))
	for d, reason := range reasons {
		if reason != "" && availability.hasDate(d) {
			kept[d] = reason
		}
	}
	return &ShopHours{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(shopID, createdAt, updatedAt), version,
		),
		location:     location,
		availability: availability,
		reasons:      kept,
	}
}

// Getters
func (h *ShopHours) ShopID() uuid.UUID                        { return h.ID() }
func (h *ShopHours) Location() *time.Location                 { return h.location }
func (h *ShopHours) Availability() AvailabilityWithExceptions { return h.availability }
func (h *ShopHours) Weekly() WeeklyAvailability               { return h.availability.Weekly() }
func (h *ShopHours) Closures() []Date                         { return h.availability.Exceptions() }

// ClosureReason returns the reason recorded for a closed date, if any.
func (h *ShopHours) ClosureReason(date Date) string { return h.reasons[date] }

// ClosureDetails lists closures in date order with their reasons.
func (h *ShopHours) ClosureDetails() []Closure {
	dates := h.Closures()
	out := make([]Closure, len(dates))
	for i, d := range dates {
		out[i] = Closure{Date: d, Reason: h.reasons[d]}
	}
	return out
}

// SetWeekly replaces the weekly pattern and timezone, keeping closures.
func (h *ShopHours) SetWeekly(weekly WeeklyAvailability, location *time.Location) error {
	if location == nil {
		location = h.location
	}
	availability, err := NewAvailabilityWithExceptionDates(weekly, h.availability.Exceptions()...)
	if err != nil {
		return err
	}
	h.availability = availability
	h.location = location
	h.Touch()
	h.AddDomainEvent(NewHoursSet(h))
	return nil
}

// AddClosure closes the shop on date. Closing an already closed date changes
// nothing and records no event.
func (h *ShopHours) AddClosure(date Date, reason string) error {
	if h.availability.hasDate(date) {
		return nil
	}
	next, err := h.availability.AddExceptionDate(date)
	if err != nil {
		return err
	}
	h.availability = next
	if reason != "" {
		h.reasons[date] = reason
	}
	h.Touch()
	h.AddDomainEvent(NewClosureAdded(h.ID(), date, reason))
	return nil
}

// RemoveClosure reopens date. Removing a date that is not closed is a no-op.
func (h *ShopHours) RemoveClosure(date Date) {
	if !h.availability.hasDate(date) {
		return
	}
	h.availability = h.availability.RemoveExceptionDate(date)
	delete(h.reasons, date)
	h.Touch()
	h.AddDomainEvent(NewClosureRemoved(h.ID(), date))
}

// IsClosedOn reports whether date is a closure.
func (h *ShopHours) IsClosedOn(date Date) bool {
	return h.availability.hasDate(date)
}

// IsOpen reports whether the shop is open at t.
func (h *ShopHours) IsOpen(t time.Time) bool {
	return h.availability.IncludesInstant(t.In(h.location))
}

// CoversRange reports whether [start, end] lies inside a single opening window.
func (h *ShopHours) CoversRange(start, end time.Time) bool {
	return h.availability.IncludesRange(start.In(h.location), end.In(h.location))
}

// NextOpening returns the next window start after from, in the shop's timezone.
func (h *ShopHours) NextOpening(from time.Time, horizonDays int) Occurrence {
	return h.availability.NextOccurrence(from.In(h.location), horizonDays)
}
