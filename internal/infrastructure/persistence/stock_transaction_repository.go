package persistence

import (
	"context"
	"fmt"

	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockTransactionRepository implements StockTransactionRepository using GORM
type GormStockTransactionRepository struct {
	db *gorm.DB
}

// NewGormStockTransactionRepository creates a new GormStockTransactionRepository
func NewGormStockTransactionRepository(db *gorm.DB) *GormStockTransactionRepository {
	return &GormStockTransactionRepository{db: db}
}

// Append inserts an audit record. Records are never updated or deleted.
func (r *GormStockTransactionRepository) Append(ctx context.Context, txn *inventory.StockTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// FindByProduct finds audit records for a product, newest first by default
func (r *GormStockTransactionRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockTransaction, error) {
	var txns []inventory.StockTransaction
	query := r.db.WithContext(ctx).
		Model(&inventory.StockTransaction{}).
		Where("product_id = ?", productID)

	orderBy := ValidateSortField(filter.OrderBy, StockTransactionSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// FindByReference finds audit records tied to a reference, e.g. all the
// movements of one bill
func (r *GormStockTransactionRepository) FindByReference(ctx context.Context, refType inventory.ReferenceType, refID string) ([]inventory.StockTransaction, error) {
	var txns []inventory.StockTransaction
	if err := r.db.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ?", refType, refID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

var _ inventory.StockTransactionRepository = (*GormStockTransactionRepository)(nil)
