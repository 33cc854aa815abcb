package commands

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/groomly/internal/availability/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// AddClosureCommand closes a shop on one date.
type AddClosureCommand struct {
	ShopID  uuid.UUID
	Date    domain.Date
	Reason  string
	ActorID uuid.UUID
}

// RemoveClosureCommand reopens a closed date.
type RemoveClosureCommand struct {
	ShopID  uuid.UUID
	Date    domain.Date
	ActorID uuid.UUID
}

// ClosureHandler handles AddClosureCommand and RemoveClosureCommand.
type ClosureHandler struct {
	repo       domain.ShopHoursRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewClosureHandler creates a new ClosureHandler.
func NewClosureHandler(repo domain.ShopHoursRepository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *ClosureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClosureHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, logger: logger}
}

// Add closes the shop on cmd.Date. The shop must already have hours.
func (h *ClosureHandler) Add(ctx context.Context, cmd AddClosureCommand) error {
	err := h.modify(ctx, cmd.ShopID, cmd.ActorID, func(hours *domain.ShopHours) error {
		return hours.AddClosure(cmd.Date, cmd.Reason)
	})
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "closure added", "shop_id", cmd.ShopID, "date", cmd.Date.String())
	return nil
}

// Remove reopens cmd.Date. Reopening a date that was never closed succeeds.
func (h *ClosureHandler) Remove(ctx context.Context, cmd RemoveClosureCommand) error {
	err := h.modify(ctx, cmd.ShopID, cmd.ActorID, func(hours *domain.ShopHours) error {
		hours.RemoveClosure(cmd.Date)
		return nil
	})
	if err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "closure removed", "shop_id", cmd.ShopID, "date", cmd.Date.String())
	return nil
}

func (h *ClosureHandler) modify(ctx context.Context, shopID, actorID uuid.UUID, fn func(*domain.ShopHours) error) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		hours, err := h.repo.FindByShopID(txCtx, shopID)
		if err != nil {
			return err
		}
		if err := fn(hours); err != nil {
			return err
		}
		if len(hours.DomainEvents()) == 0 {
			return nil
		}
		if err := h.repo.Save(txCtx, hours); err != nil {
			return err
		}
		return publish(txCtx, h.outboxRepo, hours, actorID)
	})
}
