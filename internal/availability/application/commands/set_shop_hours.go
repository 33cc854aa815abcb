package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/groomly/internal/availability/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// WindowInput is one weekday window as entered by a user.
type WindowInput struct {
	Day   time.Weekday
	Start string
	End   string
}

// SetShopHoursCommand replaces a shop's weekly opening hours.
type SetShopHoursCommand struct {
	ShopID   uuid.UUID
	Timezone string
	Windows  []WindowInput
	ActorID  uuid.UUID
}

// SetShopHoursResult reports the stored hours.
type SetShopHoursResult struct {
	ShopID  uuid.UUID
	Days    []time.Weekday
	Created bool
}

// SetShopHoursHandler handles SetShopHoursCommand.
type SetShopHoursHandler struct {
	repo       domain.ShopHoursRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewSetShopHoursHandler creates a new SetShopHoursHandler.
func NewSetShopHoursHandler(repo domain.ShopHoursRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *SetShopHoursHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetShopHoursHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Handle validates the windows, then creates or replaces the hours.
func (h *SetShopHoursHandler) Handle(ctx context.Context, cmd SetShopHoursCommand) (*SetShopHoursResult, error) {
	weekly, err := buildWeekly(cmd.Windows)
	if err != nil {
		return nil, err
	}
	loc, err := domain.LoadLocation(cmd.Timezone)
	if err != nil {
		return nil, err
	}

	var result *SetShopHoursResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		hours, err := h.repo.FindByShopID(txCtx, cmd.ShopID)
		created := false
		switch {
		case errors.Is(err, domain.ErrShopHoursNotFound):
			hours, err = domain.NewShopHours(cmd.ShopID, weekly, loc)
			if err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		default:
			if err := hours.SetWeekly(weekly, loc); err != nil {
				return err
			}
		}

		if err := h.repo.Save(txCtx, hours); err != nil {
			return err
		}
		if err := publish(txCtx, h.outboxRepo, hours, cmd.ActorID); err != nil {
			return err
		}

		result = &SetShopHoursResult{ShopID: hours.ShopID(), Days: weekly.DaysOfWeek(), Created: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "shop hours set",
		"shop_id", cmd.ShopID,
		"timezone", loc.String(),
		"windows", len(cmd.Windows),
		"created", result.Created,
	)
	return result, nil
}

func buildWeekly(inputs []WindowInput) (domain.WeeklyAvailability, error) {
	windows := make([]domain.TimeWindow, 0, len(inputs))
	for _, in := range inputs {
		w, err := domain.NewTimeWindow(in.Day, in.Start, in.End)
		if err != nil {
			return domain.WeeklyAvailability{}, err
		}
		windows = append(windows, w)
	}
	return domain.NewWeeklyAvailability(windows...)
}

func publish(ctx context.Context, repo outbox.Repository, hours *domain.ShopHours, actorID uuid.UUID) error {
	events := hours.DomainEvents()
	sharedApplication.StampEvents(ctx, events, actorID)
	if err := outbox.Enqueue(ctx, repo, events); err != nil {
		return err
	}
	hours.ClearDomainEvents()
	return nil
}
