package persistence

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/groomly/internal/availability/domain"
	"github.com/google/uuid"
)

type storedWindow struct {
	day, start, end int
}

type storedClosure struct {
	date   domain.Date
	reason string
}

func toWeekly(stored []storedWindow) (domain.WeeklyAvailability, error) {
	windows := make([]domain.TimeWindow, 0, len(stored))
	for _, s := range stored {
		w, err := domain.NewTimeWindowMinutes(time.Weekday(s.day), s.start, s.end)
		if err != nil {
			return domain.WeeklyAvailability{}, fmt.Errorf("stored window: %w", err)
		}
		windows = append(windows, w)
	}
	return domain.NewWeeklyAvailability(windows...)
}

func rehydrate(
	shopID uuid.UUID,
	timezone string,
	weekly domain.WeeklyAvailability,
	closures []storedClosure,
	version int,
	createdAt, updatedAt time.Time,
) (*domain.ShopHours, error) {
	loc, err := domain.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	dates := make([]domain.Date, len(closures))
	reasons := make(map[domain.Date]string, len(closures))
	for i, c := range closures {
		dates[i] = c.date
		reasons[c.date] = c.reason
	}
	availability, err := domain.NewAvailabilityWithExceptionDates(weekly, dates...)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateShopHours(shopID, loc, availability, reasons, version, createdAt, updatedAt), nil
}
