package domain

import "time"

// DefaultHorizonDays bounds the forward search of NextOccurrence when the
// caller has no configured horizon.
const DefaultHorizonDays = 30

// Occurrence is an optional instant. The zero value means none was found.
type Occurrence struct {
	at    time.Time
	found bool
}

// Found wraps t as a present occurrence.
func Found(t time.Time) Occurrence {
	return Occurrence{at: t, found: true}
}

func (o Occurrence) Found() bool     { return o.found }
func (o Occurrence) Time() time.Time { return o.at }

// Get returns the instant and whether it is present.
func (o Occurrence) Get() (time.Time, bool) {
	return o.at, o.found
}

// NextOccurrenceFinder carries the search horizon so call sites do not
// repeat it.
type NextOccurrenceFinder struct {
	HorizonDays int
}

// NewNextOccurrenceFinder returns a finder with horizonDays, falling back to
// DefaultHorizonDays when horizonDays is zero.
func NewNextOccurrenceFinder(horizonDays int) NextOccurrenceFinder {
	if horizonDays == 0 {
		horizonDays = DefaultHorizonDays
	}
	return NextOccurrenceFinder{HorizonDays: horizonDays}
}

// Find returns the next instant after from at which availability opens.
func (f NextOccurrenceFinder) Find(availability AvailabilityWithExceptions, from time.Time) Occurrence {
	return availability.NextOccurrence(from, f.HorizonDays)
}
