package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCouponRepository implements CouponRepository using GORM
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByID finds a coupon by its ID
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Coupon, error) {
	var coupon billing.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// FindByCode finds a coupon by its code; codes are stored uppercase
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*billing.Coupon, error) {
	var coupon billing.Coupon
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// FindAll finds all coupons, paginated
func (r *GormCouponRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[billing.Coupon], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&billing.Coupon{}).Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CouponSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var coupons []billing.Coupon
	if err := r.db.WithContext(ctx).
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&coupons).Error; err != nil {
		return nil, err
	}

	result := shared.NewPaginated(coupons, total, page, pageSize)
	return &result, nil
}

// Save creates or updates a coupon. The unique index on code backstops the
// service-level existence check, so a concurrent create surfaces as
// ErrAlreadyExists rather than a driver error.
func (r *GormCouponRepository) Save(ctx context.Context, coupon *billing.Coupon) error {
	if err := r.db.WithContext(ctx).Save(coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes a coupon
func (r *GormCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&billing.Coupon{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ConsumeUsage records one use of the coupon as a single guarded UPDATE.
// The usage-limit and sales-cap predicates sit in the WHERE clause, so a
// concurrent bill that would breach either cap simply matches zero rows.
// A zero cap means unlimited.
func (r *GormCouponRepository) ConsumeUsage(ctx context.Context, couponID uuid.UUID, payable decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&billing.Coupon{}).
		Where("id = ? AND active = ?", couponID, true).
		Where("usage_limit = 0 OR used_count < usage_limit").
		Where("max_total_sales = 0 OR total_sales + ? <= max_total_sales", payable).
		Updates(map[string]interface{}{
			"used_count":  gorm.Expr("used_count + 1"),
			"total_sales": gorm.Expr("total_sales + ?", payable),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvalidCoupon
	}
	return nil
}

var _ billing.CouponRepository = (*GormCouponRepository)(nil)
