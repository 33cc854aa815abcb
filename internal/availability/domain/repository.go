package domain

import (
	"context"

	"github.com/google/uuid"
)

// ShopHoursRepository persists ShopHours.
type ShopHoursRepository interface {
	// Save inserts or replaces the hours. It fails with
	// ErrConcurrentModification when the stored version moved on.
	Save(ctx context.Context, hours *ShopHours) error
	// FindByShopID returns ErrShopHoursNotFound when the shop has no hours.
	FindByShopID(ctx context.Context, shopID uuid.UUID) (*ShopHours, error)
}
