package persistence

import (
	"context"

	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockLedger implements StockLedger with single-statement conditional
// writes. The decrement guard (stock >= quantity) and the decrement itself
// are one UPDATE, so two concurrent bills can never both take the last unit:
// the row-level lock serializes them and the loser's predicate fails.
type GormStockLedger struct {
	db *gorm.DB
}

// NewGormStockLedger creates a new GormStockLedger
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db}
}

// DecrementStock reduces product stock by quantity if enough remains
func (l *GormStockLedger) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, shared.ErrInvalidQuantity
	}
	var remaining int
	result := l.db.WithContext(ctx).Raw(
		`UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND stock >= ? RETURNING stock`,
		quantity, productID, quantity,
	).Scan(&remaining)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrInsufficientStock
	}
	return remaining, nil
}

// DecrementVariantStock reduces variant stock by quantity if enough remains
func (l *GormStockLedger) DecrementVariantStock(ctx context.Context, productID, variantID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, shared.ErrInvalidQuantity
	}
	var remaining int
	result := l.db.WithContext(ctx).Raw(
		`UPDATE product_variants SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND product_id = ? AND stock >= ? RETURNING stock`,
		quantity, variantID, productID, quantity,
	).Scan(&remaining)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrInsufficientStock
	}
	return remaining, nil
}

// IncrementStock increases product stock by quantity and returns the new value
func (l *GormStockLedger) IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, shared.ErrInvalidQuantity
	}
	var remaining int
	result := l.db.WithContext(ctx).Raw(
		`UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? RETURNING stock`,
		quantity, productID,
	).Scan(&remaining)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}
	return remaining, nil
}

// IncrementVariantStock increases variant stock by quantity and returns the new value
func (l *GormStockLedger) IncrementVariantStock(ctx context.Context, productID, variantID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, shared.ErrInvalidQuantity
	}
	var remaining int
	result := l.db.WithContext(ctx).Raw(
		`UPDATE product_variants SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND product_id = ? RETURNING stock`,
		quantity, variantID, productID,
	).Scan(&remaining)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}
	return remaining, nil
}

var _ inventory.StockLedger = (*GormStockLedger)(nil)
