package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotInitialized is returned when a command runs without an App.
var ErrNotInitialized = errors.New("groomly is not initialized")

// inputLayouts are tried in order for times without an explicit offset.
var inputLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 or a local layout interpreted in loc.
// Empty input returns now.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DDTHH:MM", s)
}

// ParseRange resolves a start plus either an end or a duration.
func ParseRange(start, end string, d time.Duration, loc *time.Location) (time.Time, time.Time, error) {
	if strings.TrimSpace(start) == "" {
		return time.Time{}, time.Time{}, errors.New("--start is required")
	}
	s, err := ParseTime(start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	switch {
	case end != "":
		e, err := ParseTime(end, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return s, e, nil
	case d > 0:
		return s, s.Add(d), nil
	default:
		return time.Time{}, time.Time{}, errors.New("one of --end or --duration is required")
	}
}

// ParseID parses a UUID argument, naming what it is on failure.
func ParseID(what, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", what, err)
	}
	return id, nil
}

// ParseOptionalID returns uuid.Nil for empty input.
func ParseOptionalID(what, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, nil
	}
	return ParseID(what, s)
}

// RequireApp returns the App or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// FormatTime renders t in loc for output.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Mon 2006-01-02 15:04 MST")
}

// Separator is printed under command headings.
var Separator = strings.Repeat("-", 40)
