package domain

import (
	sharedDomain "github.com/felixgeelhaar/groomly/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "ShopHours"

	RoutingKeyHoursSet       = "availability.hours.set"
	RoutingKeyClosureAdded   = "availability.closure.added"
	RoutingKeyClosureRemoved = "availability.closure.removed"
)

// WindowPayload is the wire form of a TimeWindow inside events.
type WindowPayload struct {
	Day   int    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// HoursSet is emitted when a shop's weekly hours are created or replaced.
type HoursSet struct {
	sharedDomain.BaseEvent
	Timezone string          `json:"timezone"`
	Windows  []WindowPayload `json:"windows"`
}

// NewHoursSet creates a HoursSet event
func NewHoursSet(h *ShopHours) *HoursSet {
	windows := h.Weekly().Windows()
	payload := make([]WindowPayload, 0, len(windows))
	for _, w := range windows {
		payload = append(payload, WindowPayload{Day: int(w.Day()), Start: w.Start(), End: w.End()})
	}
	return &HoursSet{
		BaseEvent: sharedDomain.NewBaseEvent(h.ID(), AggregateType, RoutingKeyHoursSet),
		Timezone:  h.Location().String(),
		Windows:   payload,
	}
}

// ClosureAdded is emitted when a date is closed.
type ClosureAdded struct {
	sharedDomain.BaseEvent
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// NewClosureAdded creates a ClosureAdded event
func NewClosureAdded(shopID uuid.UUID, date Date, reason string) *ClosureAdded {
	return &ClosureAdded{
		BaseEvent: sharedDomain.NewBaseEvent(shopID, AggregateType, RoutingKeyClosureAdded),
		Date:      date.String(),
		Reason:    reason,
	}
}

// ClosureRemoved is emitted when a closed date is reopened.
type ClosureRemoved struct {
	sharedDomain.BaseEvent
	Date string `json:"date"`
}

// NewClosureRemoved creates a ClosureRemoved event
func NewClosureRemoved(shopID uuid.UUID, date Date) *ClosureRemoved {
	return &ClosureRemoved{
		BaseEvent: sharedDomain.NewBaseEvent(shopID, AggregateType, RoutingKeyClosureRemoved),
		Date:      date.String(),
	}
}
