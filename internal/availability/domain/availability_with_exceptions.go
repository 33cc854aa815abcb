package domain

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// AvailabilityWithExceptions is a weekly pattern suspended on specific dates.
// Values are immutable; every modifier returns a new instance and leaves the
// receiver untouched.
type AvailabilityWithExceptions struct {
	weekly     WeeklyAvailability
	exceptions map[Date]struct{}
}

// NewAvailabilityWithExceptions wraps weekly with the given exception dates.
// Time-of-day is discarded from each exception.
func NewAvailabilityWithExceptions(weekly WeeklyAvailability, exceptions ...time.Time) (AvailabilityWithExceptions, error) {
	if weekly.IsEmpty() {
		return AvailabilityWithExceptions{}, ErrEmptySet
	}
	set := make(map[Date]struct{}, len(exceptions))
	for _, e := range exceptions {
		if e.IsZero() {
			return AvailabilityWithExceptions{}, fmt.Errorf("%w: zero time", ErrInvalidException)
		}
		set[DateOf(e)] = struct{}{}
	}
	return AvailabilityWithExceptions{weekly: weekly, exceptions: set}, nil
}

// NewAvailabilityWithExceptionDates is NewAvailabilityWithExceptions for
// callers that already hold calendar dates.
func NewAvailabilityWithExceptionDates(weekly WeeklyAvailability, dates ...Date) (AvailabilityWithExceptions, error) {
	if weekly.IsEmpty() {
		return AvailabilityWithExceptions{}, ErrEmptySet
	}
	set := make(map[Date]struct{}, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			return AvailabilityWithExceptions{}, fmt.Errorf("%w: zero date", ErrInvalidException)
		}
		set[d] = struct{}{}
	}
	return AvailabilityWithExceptions{weekly: weekly, exceptions: set}, nil
}

func (a AvailabilityWithExceptions) Weekly() WeeklyAvailability { return a.weekly }

// Exceptions returns the exception dates in ascending order.
func (a AvailabilityWithExceptions) Exceptions() []Date {
	dates := slices.Collect(maps.Keys(a.exceptions))
	slices.SortFunc(dates, func(x, y Date) int {
		switch {
		case x.Before(y):
			return -1
		case y.Before(x):
			return 1
		}
		return 0
	})
	return dates
}

// HasException reports whether t's calendar date is an exception.
func (a AvailabilityWithExceptions) HasException(t time.Time) bool {
	return a.hasDate(DateOf(t))
}

func (a AvailabilityWithExceptions) hasDate(d Date) bool {
	_, ok := a.exceptions[d]
	return ok
}

// AddException returns a copy with t's date added.
func (a AvailabilityWithExceptions) AddException(t time.Time) (AvailabilityWithExceptions, error) {
	if t.IsZero() {
		return AvailabilityWithExceptions{}, fmt.Errorf("%w: zero time", ErrInvalidException)
	}
	return a.AddExceptionDate(DateOf(t))
}

// AddExceptionDate returns a copy with d added.
func (a AvailabilityWithExceptions) AddExceptionDate(d Date) (AvailabilityWithExceptions, error) {
	if d.IsZero() {
		return AvailabilityWithExceptions{}, fmt.Errorf("%w: zero date", ErrInvalidException)
	}
	next := a.clone()
	next.exceptions[d] = struct{}{}
	return next, nil
}

// RemoveException returns a copy without t's date. Missing dates are ignored.
func (a AvailabilityWithExceptions) RemoveException(t time.Time) AvailabilityWithExceptions {
	return a.RemoveExceptionDate(DateOf(t))
}

// RemoveExceptionDate returns a copy without d.
func (a AvailabilityWithExceptions) RemoveExceptionDate(d Date) AvailabilityWithExceptions {
	next := a.clone()
	delete(next.exceptions, d)
	return next
}

// ClearExceptions returns a copy with no exceptions.
func (a AvailabilityWithExceptions) ClearExceptions() AvailabilityWithExceptions {
	return AvailabilityWithExceptions{weekly: a.weekly, exceptions: map[Date]struct{}{}}
}

// IncludesInstant is false on any exception date regardless of time-of-day,
// otherwise it defers to the weekly pattern.
func (a AvailabilityWithExceptions) IncludesInstant(t time.Time) bool {
	if a.HasException(t) {
		return false
	}
	return a.weekly.IncludesInstant(t)
}

// IncludesRange reports whether [start, end] fits in one window on a
// non-exception date.
func (a AvailabilityWithExceptions) IncludesRange(start, end time.Time) bool {
	if a.HasException(start) {
		return false
	}
	return a.weekly.IncludesRange(start, end)
}

// NextOccurrence scans horizonDays calendar days starting at from's date and
// returns the start of the first window defined for each represented weekday,
// skipping exception dates, as soon as that instant is strictly after from.
// Windows are taken in construction order, so a later-defined window that
// starts earlier on the same day is never returned.
func (a AvailabilityWithExceptions) NextOccurrence(from time.Time, horizonDays int) Occurrence {
	start := DateOf(from)
	for i := 0; i < horizonDays; i++ {
		day := start.AddDays(i)
		window, ok := a.weekly.FirstWindowFor(day.Weekday())
		if !ok || a.hasDate(day) {
			continue
		}
		candidate := window.At(day.Midnight(from.Location()))
		if candidate.After(from) {
			return Found(candidate)
		}
	}
	return Occurrence{}
}

func (a AvailabilityWithExceptions) clone() AvailabilityWithExceptions {
	set := make(map[Date]struct{}, len(a.exceptions)+1)
	maps.Copy(set, a.exceptions)
	return AvailabilityWithExceptions{weekly: a.weekly, exceptions: set}
}
