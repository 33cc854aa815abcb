package queries

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/groomly/internal/availability/domain"
	"github.com/felixgeelhaar/groomly/pkg/observability"
	"github.com/google/uuid"
)

// WindowDTO is a TimeWindow for display.
type WindowDTO struct {
	Day             time.Weekday
	Start           string
	End             string
	DurationMinutes int
}

// ClosureDTO is one closed date.
type ClosureDTO struct {
	Date   string
	Reason string
}

// ShopHoursDTO is a data transfer object for shop hours.
type ShopHoursDTO struct {
	ShopID   uuid.UUID
	Timezone string
	Windows  []WindowDTO
	Closures []ClosureDTO
	Version  int
}

// GetShopHoursQuery asks for one shop's hours.
type GetShopHoursQuery struct {
	ShopID uuid.UUID
}

// IsOpenQuery asks whether a shop is open at an instant.
type IsOpenQuery struct {
	ShopID uuid.UUID
	At     time.Time
}

// IsOpenResult answers IsOpenQuery.
type IsOpenResult struct {
	Open      bool
	ClosedDay bool
	LocalTime time.Time
}

// NextOpeningQuery asks for the next window start after From.
// HorizonDays of zero uses the handler's configured horizon.
type NextOpeningQuery struct {
	ShopID      uuid.UUID
	From        time.Time
	HorizonDays int
}

// NextOpeningResult answers NextOpeningQuery. Found is false when nothing
// opens inside the horizon.
type NextOpeningResult struct {
	Found       bool
	At          time.Time
	HorizonDays int
}

// AvailabilityHandler serves read-side availability questions.
type AvailabilityHandler struct {
	repo    domain.ShopHoursRepository
	finder  domain.NextOccurrenceFinder
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(repo domain.ShopHoursRepository, horizonDays int, metrics observability.Metrics, logger *slog.Logger) *AvailabilityHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityHandler{
		repo:    repo,
		finder:  domain.NewNextOccurrenceFinder(horizonDays),
		metrics: metrics,
		logger:  logger,
	}
}

// HorizonDays is the default search horizon.
func (h *AvailabilityHandler) HorizonDays() int { return h.finder.HorizonDays }

// GetShopHours returns the stored hours.
func (h *AvailabilityHandler) GetShopHours(ctx context.Context, q GetShopHoursQuery) (*ShopHoursDTO, error) {
	hours, err := h.repo.FindByShopID(ctx, q.ShopID)
	if err != nil {
		return nil, err
	}
	return toShopHoursDTO(hours), nil
}

// IsOpen answers whether the shop is open at q.At.
func (h *AvailabilityHandler) IsOpen(ctx context.Context, q IsOpenQuery) (*IsOpenResult, error) {
	h.metrics.Counter(observability.MetricAvailabilityQueries, 1, observability.T("query", "is_open"))

	hours, err := h.repo.FindByShopID(ctx, q.ShopID)
	if err != nil {
		return nil, err
	}
	local := q.At.In(hours.Location())
	return &IsOpenResult{
		Open:      hours.IsOpen(q.At),
		ClosedDay: hours.IsClosedOn(domain.DateOf(local)),
		LocalTime: local,
	}, nil
}

// NextOpening returns the next time the shop opens.
func (h *AvailabilityHandler) NextOpening(ctx context.Context, q NextOpeningQuery) (*NextOpeningResult, error) {
	h.metrics.Counter(observability.MetricAvailabilityQueries, 1, observability.T("query", "next_opening"))

	hours, err := h.repo.FindByShopID(ctx, q.ShopID)
	if err != nil {
		return nil, err
	}

	finder := h.finder
	if q.HorizonDays != 0 {
		finder = domain.NextOccurrenceFinder{HorizonDays: q.HorizonDays}
	}
	occ := finder.Find(hours.Availability(), q.From.In(hours.Location()))
	if !occ.Found() {
		h.logger.DebugContext(ctx, "no opening within horizon",
			"shop_id", q.ShopID, "horizon_days", finder.HorizonDays)
	}
	return &NextOpeningResult{Found: occ.Found(), At: occ.Time(), HorizonDays: finder.HorizonDays}, nil
}

// CoversRange reports whether [start, end] fits inside one opening window of
// the shop. Shops without configured hours accept any range.
func (h *AvailabilityHandler) CoversRange(ctx context.Context, shopID uuid.UUID, start, end time.Time) (bool, error) {
	hours, err := h.repo.FindByShopID(ctx, shopID)
	if errors.Is(err, domain.ErrShopHoursNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return hours.CoversRange(start, end), nil
}

func toShopHoursDTO(hours *domain.ShopHours) *ShopHoursDTO {
	windows := hours.Weekly().Windows()
	dto := &ShopHoursDTO{
		ShopID:   hours.ShopID(),
		Timezone: hours.Location().String(),
		Windows:  make([]WindowDTO, len(windows)),
		Version:  hours.Version(),
	}
	for i, w := range windows {
		dto.Windows[i] = WindowDTO{Day: w.Day(), Start: w.Start(), End: w.End(), DurationMinutes: w.DurationMinutes()}
	}
	for _, c := range hours.ClosureDetails() {
		dto.Closures = append(dto.Closures, ClosureDTO{Date: c.Date.String(), Reason: c.Reason})
	}
	return dto
}
