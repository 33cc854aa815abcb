package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/groomly/internal/availability/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monWed(t *testing.T) domain.WeeklyAvailability {
	t.Helper()
	a, err := domain.CreateFromDaysOfWeek([]time.Weekday{time.Monday, time.Wednesday}, "09:00", "17:00")
	require.NoError(t, err)
	return a
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAvailabilityWithExceptions_ExceptionsWin(t *testing.T) {
	a, err := domain.NewAvailabilityWithExceptions(monWed(t), day(2025, 6, 2).Add(15*time.Hour))
	require.NoError(t, err)

	for _, h := range []int{0, 9, 12, 17, 23} {
		probe := day(2025, 6, 2).Add(time.Duration(h) * time.Hour)
		assert.False(t, a.IncludesInstant(probe), "hour %d on an exception date", h)
	}
	assert.True(t, a.IncludesInstant(day(2025, 6, 9).Add(10*time.Hour)))
}

func TestAvailabilityWithExceptions_NormalizesToDate(t *testing.T) {
	a, err := domain.NewAvailabilityWithExceptions(monWed(t), time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, a.HasException(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []domain.Date{{Year: 2025, Month: time.June, Day: 2}}, a.Exceptions())
}

func TestAvailabilityWithExceptions_AddRemoveRoundTrip(t *testing.T) {
	base, err := domain.NewAvailabilityWithExceptions(monWed(t), day(2025, 6, 4))
	require.NoError(t, err)

	added, err := base.AddException(day(2025, 6, 9).Add(11 * time.Hour))
	require.NoError(t, err)
	assert.Len(t, added.Exceptions(), 2)
	assert.Len(t, base.Exceptions(), 1, "copy on write")

	removed := added.RemoveException(day(2025, 6, 9).Add(16 * time.Hour))
	assert.Equal(t, base.Exceptions(), removed.Exceptions())
}

func TestAvailabilityWithExceptions_RemoveMissingIsNoop(t *testing.T) {
	base, err := domain.NewAvailabilityWithExceptions(monWed(t), day(2025, 6, 4))
	require.NoError(t, err)

	same := base.RemoveException(day(2025, 7, 1))
	assert.Equal(t, base.Exceptions(), same.Exceptions())
}

func TestAvailabilityWithExceptions_Clear(t *testing.T) {
	base, err := domain.NewAvailabilityWithExceptions(monWed(t), day(2025, 6, 2), day(2025, 6, 4))
	require.NoError(t, err)

	cleared := base.ClearExceptions()
	assert.Empty(t, cleared.Exceptions())
	assert.Len(t, base.Exceptions(), 2)
	assert.True(t, cleared.IncludesInstant(day(2025, 6, 2).Add(10*time.Hour)))
}

func TestAvailabilityWithExceptions_InvalidInput(t *testing.T) {
	_, err := domain.NewAvailabilityWithExceptions(monWed(t), time.Time{})
	assert.ErrorIs(t, err, domain.ErrInvalidException)

	_, err = domain.NewAvailabilityWithExceptions(domain.WeeklyAvailability{})
	assert.ErrorIs(t, err, domain.ErrEmptySet)

	a, err := domain.NewAvailabilityWithExceptions(monWed(t))
	require.NoError(t, err)
	_, err = a.AddException(time.Time{})
	assert.ErrorIs(t, err, domain.ErrInvalidException)
}

func TestAvailabilityWithExceptions_IncludesRange(t *testing.T) {
	a, err := domain.NewAvailabilityWithExceptions(monWed(t), day(2025, 6, 2))
	require.NoError(t, err)

	assert.False(t, a.IncludesRange(day(2025, 6, 2).Add(10*time.Hour), day(2025, 6, 2).Add(11*time.Hour)))
	assert.True(t, a.IncludesRange(day(2025, 6, 4).Add(10*time.Hour), day(2025, 6, 4).Add(11*time.Hour)))
}

func TestNextOccurrence_SkipsExceptionDates(t *testing.T) {
	// June 2025 starts on a Sunday; the first Monday and Wednesday are closed.
	a, err := domain.NewAvailabilityWithExceptions(monWed(t), day(2025, 6, 2), day(2025, 6, 4))
	require.NoError(t, err)

	got := a.NextOccurrence(day(2025, 6, 1).Add(10*time.Hour), domain.DefaultHorizonDays)

	require.True(t, got.Found())
	assert.Equal(t, time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC), got.Time())
}

func TestNextOccurrence(t *testing.T) {
	a, err := domain.NewAvailabilityWithExceptions(monWed(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"before window on matching day", day(2025, 6, 2).Add(8 * time.Hour), day(2025, 6, 2).Add(9 * time.Hour)},
		{"exactly at window start moves on", day(2025, 6, 2).Add(9 * time.Hour), day(2025, 6, 4).Add(9 * time.Hour)},
		{"late in the day moves on", day(2025, 6, 2).Add(23*time.Hour + 59*time.Minute), day(2025, 6, 4).Add(9 * time.Hour)},
		{"rolls over month end", day(2025, 6, 26).Add(12 * time.Hour), day(2025, 6, 30).Add(9 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.NextOccurrence(tt.from, domain.DefaultHorizonDays)
			require.True(t, got.Found())
			assert.Equal(t, tt.want, got.Time())
			assert.True(t, got.Time().After(tt.from))
		})
	}
}

func TestNextOccurrence_FirstWindowByConstructionOrder(t *testing.T) {
	weekly, err := domain.NewWeeklyAvailability(
		mustWindow(t, time.Tuesday, "14:00", "16:00"),
		mustWindow(t, time.Tuesday, "08:00", "10:00"),
	)
	require.NoError(t, err)
	a, err := domain.NewAvailabilityWithExceptions(weekly)
	require.NoError(t, err)

	got := a.NextOccurrence(day(2025, 6, 2), domain.DefaultHorizonDays)
	require.True(t, got.Found())
	assert.Equal(t, day(2025, 6, 3).Add(14*time.Hour), got.Time())
}

func TestNextOccurrence_NoneFound(t *testing.T) {
	t.Run("every matching day in the horizon is an exception", func(t *testing.T) {
		a, err := domain.NewAvailabilityWithExceptions(monWed(t), day(2025, 6, 2), day(2025, 6, 4))
		require.NoError(t, err)

		got := a.NextOccurrence(day(2025, 6, 1), 7)
		assert.False(t, got.Found())
		assert.True(t, got.Time().IsZero())
	})

	t.Run("no weekday matches in the horizon", func(t *testing.T) {
		a, err := domain.NewAvailabilityWithExceptions(monWed(t))
		require.NoError(t, err)

		got := a.NextOccurrence(day(2025, 6, 5), 3) // Thu, Fri, Sat
		assert.False(t, got.Found())
	})

	t.Run("non-positive horizon", func(t *testing.T) {
		a, err := domain.NewAvailabilityWithExceptions(monWed(t))
		require.NoError(t, err)
		assert.False(t, a.NextOccurrence(day(2025, 6, 1), 0).Found())
		assert.False(t, a.NextOccurrence(day(2025, 6, 1), -5).Found())
	})
}

func TestNextOccurrence_LongerHorizonReachesSparsePattern(t *testing.T) {
	weekly, err := domain.CreateFromDaysOfWeek([]time.Weekday{time.Saturday}, "10:00", "14:00")
	require.NoError(t, err)
	var closed []time.Time
	for d := day(2025, 6, 7); d.Before(day(2025, 7, 31)); d = d.AddDate(0, 0, 7) {
		closed = append(closed, d)
	}
	a, err := domain.NewAvailabilityWithExceptions(weekly, closed...)
	require.NoError(t, err)

	assert.False(t, domain.NewNextOccurrenceFinder(0).Find(a, day(2025, 6, 1)).Found())

	got := domain.NewNextOccurrenceFinder(90).Find(a, day(2025, 6, 1))
	require.True(t, got.Found())
	assert.Equal(t, day(2025, 8, 2).Add(10*time.Hour), got.Time())
}

func TestNextOccurrence_KeepsCallerLocation(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	a, err := domain.NewAvailabilityWithExceptions(monWed(t))
	require.NoError(t, err)

	got := a.NextOccurrence(time.Date(2025, 6, 1, 12, 0, 0, 0, berlin), domain.DefaultHorizonDays)
	require.True(t, got.Found())
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, berlin), got.Time())
}
