package domain

import (
	"fmt"
	"slices"
	"time"
)

// WeeklyAvailability is a non-empty, ordered set of TimeWindows. Several
// windows may share a weekday (split shifts) as long as they do not overlap.
// Construction order is kept because NextOccurrence uses the first window
// defined for a weekday.
type WeeklyAvailability struct {
	windows []TimeWindow
}

// NewWeeklyAvailability validates and copies windows.
func NewWeeklyAvailability(windows ...TimeWindow) (WeeklyAvailability, error) {
	if len(windows) == 0 {
		return WeeklyAvailability{}, ErrEmptySet
	}
	for i, w := range windows {
		if !validDay(w.day) || w.end <= w.start {
			return WeeklyAvailability{}, fmt.Errorf("%w: window %d was not built with NewTimeWindow", ErrInvalidOrdering, i)
		}
		for _, prev := range windows[:i] {
			if prev.Overlaps(w) {
				return WeeklyAvailability{}, fmt.Errorf("%w: %s and %s", ErrOverlappingWindows, prev, w)
			}
		}
	}
	return WeeklyAvailability{windows: slices.Clone(windows)}, nil
}

// CreateFromDaysOfWeek builds one window per distinct day, all sharing start and end.
func CreateFromDaysOfWeek(days []time.Weekday, start, end string) (WeeklyAvailability, error) {
	seen := make(map[time.Weekday]bool, len(days))
	windows := make([]TimeWindow, 0, len(days))
	for _, day := range days {
		if seen[day] {
			continue
		}
		seen[day] = true
		w, err := NewTimeWindow(day, start, end)
		if err != nil {
			return WeeklyAvailability{}, err
		}
		windows = append(windows, w)
	}
	return NewWeeklyAvailability(windows...)
}

// Windows returns a copy of the windows in construction order.
func (a WeeklyAvailability) Windows() []TimeWindow {
	return slices.Clone(a.windows)
}

// IsEmpty is true only for the zero value.
func (a WeeklyAvailability) IsEmpty() bool {
	return len(a.windows) == 0
}

// WindowsFor returns the windows on day in construction order.
func (a WeeklyAvailability) WindowsFor(day time.Weekday) []TimeWindow {
	var out []TimeWindow
	for _, w := range a.windows {
		if w.day == day {
			out = append(out, w)
		}
	}
	return out
}

// FirstWindowFor returns the first window defined for day.
func (a WeeklyAvailability) FirstWindowFor(day time.Weekday) (TimeWindow, bool) {
	for _, w := range a.windows {
		if w.day == day {
			return w, true
		}
	}
	return TimeWindow{}, false
}

// IncludesDay reports whether any window falls on day.
func (a WeeklyAvailability) IncludesDay(day time.Weekday) bool {
	_, ok := a.FirstWindowFor(day)
	return ok
}

// IncludesInstant reports whether any window includes t.
func (a WeeklyAvailability) IncludesInstant(t time.Time) bool {
	for _, w := range a.windows {
		if w.IncludesInstant(t) {
			return true
		}
	}
	return false
}

// IncludesRange reports whether a single window holds both start and end,
// which must fall on the same calendar date in start's location.
func (a WeeklyAvailability) IncludesRange(start, end time.Time) bool {
	end = end.In(start.Location())
	if !end.After(start) || DateOf(start) != DateOf(end) {
		return false
	}
	s, e := minuteOfDay(start), minuteOfDay(end)
	if end.Second() > 0 || end.Nanosecond() > 0 {
		e++
	}
	for _, w := range a.WindowsFor(start.Weekday()) {
		if w.IncludesTime(s) && w.IncludesTime(e) {
			return true
		}
	}
	return false
}

// Overlaps reports whether any window of a overlaps any window of other.
func (a WeeklyAvailability) Overlaps(other WeeklyAvailability) bool {
	for _, w := range a.windows {
		for _, o := range other.windows {
			if w.Overlaps(o) {
				return true
			}
		}
	}
	return false
}

// ExcludeDays drops every window on the given days. Removing all windows is
// an error, never silently avoided.
func (a WeeklyAvailability) ExcludeDays(days ...time.Weekday) (WeeklyAvailability, error) {
	kept := make([]TimeWindow, 0, len(a.windows))
	for _, w := range a.windows {
		if !slices.Contains(days, w.day) {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return WeeklyAvailability{}, ErrEmptySet
	}
	return WeeklyAvailability{windows: kept}, nil
}

// DaysOfWeek returns the distinct weekdays covered, ascending.
func (a WeeklyAvailability) DaysOfWeek() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, w := range a.windows {
		if !slices.Contains(days, w.day) {
			days = append(days, w.day)
		}
	}
	slices.Sort(days)
	return days
}
