package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeWindow is a recurring interval on one weekday, e.g. Monday 09:00-17:00.
// Start and end are minutes since midnight. The zero value is not valid; use
// NewTimeWindow.
type TimeWindow struct {
	day   time.Weekday
	start int
	end   int
}

// NewTimeWindow builds a window from HH:MM clock strings.
func NewTimeWindow(day time.Weekday, start, end string) (TimeWindow, error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return TimeWindow{}, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return TimeWindow{}, err
	}
	return NewTimeWindowMinutes(day, startMin, endMin)
}

// NewTimeWindowMinutes builds a window from minute-of-day values.
func NewTimeWindowMinutes(day time.Weekday, start, end int) (TimeWindow, error) {
	if start < 0 || start >= minutesPerDay || end < 0 || end >= minutesPerDay {
		return TimeWindow{}, fmt.Errorf("%w: minute %d-%d out of range", ErrInvalidTime, start, end)
	}
	if end <= start {
		return TimeWindow{}, fmt.Errorf("%w: %s-%s", ErrInvalidOrdering, FormatClock(start), FormatClock(end))
	}
	if !validDay(day) {
		return TimeWindow{}, fmt.Errorf("%w: got %d", ErrInvalidDay, int(day))
	}
	return TimeWindow{day: day, start: start, end: end}, nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as HH:MM.
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func validDay(day time.Weekday) bool {
	return day >= time.Sunday && day <= time.Saturday
}

func (w TimeWindow) Day() time.Weekday { return w.day }
func (w TimeWindow) StartMinute() int  { return w.start }
func (w TimeWindow) EndMinute() int    { return w.end }
func (w TimeWindow) Start() string     { return FormatClock(w.start) }
func (w TimeWindow) End() string       { return FormatClock(w.end) }

// IncludesTime reports whether minute lies in [start, end]. Both bounds are inclusive.
func (w TimeWindow) IncludesTime(minute int) bool {
	return w.start <= minute && minute <= w.end
}

// IncludesInstant reports whether t falls on this weekday within the window,
// read in t's own location at minute precision.
func (w TimeWindow) IncludesInstant(t time.Time) bool {
	return t.Weekday() == w.day && w.IncludesTime(minuteOfDay(t))
}

// Overlaps uses open bounds, so windows that only touch (one ends at 12:00,
// the next starts at 12:00) do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	if w.day != other.day {
		return false
	}
	return w.start < other.end && w.end > other.start
}

// DurationMinutes returns end minus start.
func (w TimeWindow) DurationMinutes() int {
	return w.end - w.start
}

// At returns the window's start on the calendar date of day, in day's location.
func (w TimeWindow) At(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, w.start/60, w.start%60, 0, 0, day.Location())
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s %s-%s", w.day, w.Start(), w.End())
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
