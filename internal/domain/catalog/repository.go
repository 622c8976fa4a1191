package catalog

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository provides access to products and their variants
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindActiveByIDs resolves active products (with variants preloaded)
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	// FindLowStock returns active products whose stock is at or below the threshold,
	// limited to the given IDs when ids is non-empty
	FindLowStock(ctx context.Context, threshold int, ids []uuid.UUID) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
