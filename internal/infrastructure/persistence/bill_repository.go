package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// FindByID finds a bill by its ID with line items preloaded
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&bill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindByInvoiceNumber finds a bill by its invoice number
func (r *GormBillRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Bill, error) {
	var bill billing.Bill
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("invoice_number = ?", invoiceNumber).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindByCustomer finds bills for a customer, paginated
func (r *GormBillRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.Bill], error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Bill{}).
		Where("customer_id = ?", customerID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	query = query.Offset((page - 1) * pageSize).Limit(pageSize)

	var bills []billing.Bill
	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(bills, total, page, pageSize)
	return &result, nil
}

// FindAll lists committed bills, paginated
func (r *GormBillRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[billing.Bill], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&billing.Bill{}).Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BillSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var bills []billing.Bill
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&bills).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(bills, total, page, pageSize)
	return &result, nil
}

// SumPayableByCouponCode totals the payable amounts of committed bills
// carrying the coupon code
func (r *GormBillRepository) SumPayableByCouponCode(ctx context.Context, code string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&billing.Bill{}).
		Select("COALESCE(SUM(payable), 0) as total").
		Where("coupon_code = ?", code).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save inserts a committed bill together with its line items. Bills are
// immutable once written.
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

var _ billing.BillRepository = (*GormBillRepository)(nil)
