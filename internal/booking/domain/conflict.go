package domain

import (
	"fmt"
	"slices"
	"strings"
)

const (
	ConflictPolicyDefault = "default"
	ConflictPolicyAll     = "all"
)

// ConflictPolicy decides which statuses still occupy their slot.
type ConflictPolicy struct {
	excluded []Status
}

// DefaultConflictPolicy frees the slot of cancelled, completed and no-show
// appointments.
func DefaultConflictPolicy() ConflictPolicy {
	return NewConflictPolicy(StatusCancelled, StatusCanceled, StatusCompleted, StatusNoShow)
}

// IncludeAll treats every booking as occupying its slot except cancelled ones.
func IncludeAll() ConflictPolicy {
	return NewConflictPolicy(StatusCancelled, StatusCanceled)
}

// NewConflictPolicy frees the slot of the given statuses.
func NewConflictPolicy(excluded ...Status) ConflictPolicy {
	return ConflictPolicy{excluded: slices.Clone(excluded)}
}

// ConflictPolicyByName resolves "default" or "all". An empty name is the
// default policy.
func ConflictPolicyByName(name string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ConflictPolicyDefault, "":
		return DefaultConflictPolicy(), nil
	case ConflictPolicyAll:
		return IncludeAll(), nil
	}
	return ConflictPolicy{}, fmt.Errorf("%w: %q", ErrUnknownConflictPolicy, name)
}

// IsActive reports whether a booking in status s blocks its slot.
func (p ConflictPolicy) IsActive(s Status) bool {
	return !slices.Contains(p.excluded, s)
}

// ActiveStatuses filters the statuses of vocabularies down to the ones that
// block a slot. With no argument every known vocabulary is used, since stored
// rows keep the vocabulary they were booked under.
func (p ConflictPolicy) ActiveStatuses(vocabularies ...*StatusVocabulary) []Status {
	if len(vocabularies) == 0 {
		vocabularies = Vocabularies()
	}
	var active []Status
	for _, v := range vocabularies {
		for _, s := range v.Statuses() {
			if p.IsActive(s) && !slices.Contains(active, s) {
				active = append(active, s)
			}
		}
	}
	return active
}

// ConflictDetector is a pure decision function. It does not guard against
// concurrent inserts; callers must run the lookup, Detect and the insert in
// one serializable unit of work.
type ConflictDetector struct {
	policy ConflictPolicy
}

// NewConflictDetector returns a detector applying policy.
func NewConflictDetector(policy ConflictPolicy) *ConflictDetector {
	return &ConflictDetector{policy: policy}
}

func (d *ConflictDetector) Policy() ConflictPolicy { return d.policy }

// Overlaps applies the booking rule to two ranges: the candidate starts
// inside existing, ends inside existing, or contains it. Ranges that only
// touch do not overlap.
func Overlaps(candidate, existing TimeRange) bool {
	s, e := candidate.start, candidate.end
	es, ee := existing.start, existing.end

	startsDuring := !es.After(s) && s.Before(ee)
	endsDuring := es.Before(e) && !e.After(ee)
	contains := !s.After(es) && !e.Before(ee)
	return startsDuring || endsDuring || contains
}

// Detect returns the active bookings in existing that collide with
// candidate. An empty result means the slot is free.
func (d *ConflictDetector) Detect(candidate TimeRange, existing []BookedInterval) []BookedInterval {
	var conflicts []BookedInterval
	for _, b := range existing {
		if !d.policy.IsActive(b.Status) {
			continue
		}
		if Overlaps(candidate, b.Range) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}

// HasConflict reports whether Detect would return anything.
func (d *ConflictDetector) HasConflict(candidate TimeRange, existing []BookedInterval) bool {
	return len(d.Detect(candidate, existing)) > 0
}

// SlotConflictError reports the bookings that block a candidate range. It
// matches ErrSlotUnavailable. Conflicts is empty when the storage layer
// rejected the insert without naming the other booking.
type SlotConflictError struct {
	Candidate TimeRange
	Conflicts []BookedInterval
}

func (e *SlotConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return fmt.Sprintf("%s: %s", ErrSlotUnavailable, e.Candidate)
	}
	return fmt.Sprintf("%s: %s overlaps %d booking(s)", ErrSlotUnavailable, e.Candidate, len(e.Conflicts))
}

func (e *SlotConflictError) Is(target error) bool {
	return target == ErrSlotUnavailable
}
