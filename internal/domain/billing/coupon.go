package billing

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DiscountType represents how a coupon's value is interpreted
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFlat    DiscountType = "flat"
)

// Rejection reasons reported when a coupon cannot be applied
const (
	RejectUnknownCode      = "unknown_code"
	RejectInactive         = "inactive"
	RejectExpired          = "expired"
	RejectLimitReached     = "limit_reached"
	RejectBelowMinAmount   = "below_min_amount"
	RejectSalesCapExceeded = "sales_cap_exceeded"
)

// NewCouponRejection wraps a rejection reason in the INVALID_COUPON error code
func NewCouponRejection(reason string) *shared.DomainError {
	return shared.NewDomainError("INVALID_COUPON", "Coupon rejected: "+reason)
}

// Coupon is a discount code with usage and aggregate-sales constraints.
// A UsageLimit or MaxTotalSales of zero means that cap is not set.
type Coupon struct {
	shared.BaseEntity
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	DiscountType   DiscountType    `gorm:"type:varchar(10);not null;default:'percent'"`
	Value          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ExpiresAt      *time.Time      `gorm:""`
	UsageLimit     int             `gorm:"not null;default:0"`
	UsedCount      int             `gorm:"not null;default:0"`
	MaxTotalSales  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalSales     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PartnerName    string          `gorm:"type:varchar(200)"`
	PartnerPhone   string          `gorm:"type:varchar(20)"`
	Active         bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Coupon) TableName() string {
	return "coupons"
}

// NewCoupon creates a new coupon. Codes are stored uppercase.
func NewCoupon(code string, discountType DiscountType, value decimal.Decimal) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Coupon code cannot be empty")
	}
	if discountType != DiscountTypePercent && discountType != DiscountTypeFlat {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type must be percent or flat")
	}
	if value.IsNegative() || value.IsZero() {
		return nil, shared.NewDomainError("INVALID_VALUE", "Discount value must be positive")
	}
	if discountType == DiscountTypePercent && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_VALUE", "Percent discount cannot exceed 100")
	}

	return &Coupon{
		BaseEntity:     shared.NewBaseEntity(),
		Code:           code,
		DiscountType:   discountType,
		Value:          value,
		MinOrderAmount: decimal.Zero,
		MaxTotalSales:  decimal.Zero,
		TotalSales:     decimal.Zero,
		Active:         true,
	}, nil
}

// HasUsageLimit returns true when a usage cap is configured
func (c *Coupon) HasUsageLimit() bool {
	return c.UsageLimit > 0
}

// HasSalesCap returns true when an aggregate sales cap is configured
func (c *Coupon) HasSalesCap() bool {
	return c.MaxTotalSales.IsPositive()
}

// IsExpired returns true when the coupon expiry has passed
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// CheckApplicable validates the coupon against a pre-discount total.
// It only reads state; consuming a use is deferred to the billing commit.
func (c *Coupon) CheckApplicable(total decimal.Decimal, now time.Time) error {
	if !c.Active {
		return NewCouponRejection(RejectInactive)
	}
	if c.IsExpired(now) {
		return NewCouponRejection(RejectExpired)
	}
	if c.HasUsageLimit() && c.UsedCount >= c.UsageLimit {
		return NewCouponRejection(RejectLimitReached)
	}
	if total.LessThan(c.MinOrderAmount) {
		return NewCouponRejection(RejectBelowMinAmount)
	}
	return nil
}

// Discount computes the discount for a total, capped so it never exceeds
// the total itself.
func (c *Coupon) Discount(total decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountTypeFlat:
		discount = c.Value
	default:
		discount = total.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	if discount.GreaterThan(total) {
		discount = total
	}
	return discount
}

// UpdateTerms replaces the discount terms, keeping usage counters intact
func (c *Coupon) UpdateTerms(discountType DiscountType, value decimal.Decimal) error {
	if discountType != DiscountTypePercent && discountType != DiscountTypeFlat {
		return shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type must be percent or flat")
	}
	if value.IsNegative() || value.IsZero() {
		return shared.NewDomainError("INVALID_VALUE", "Discount value must be positive")
	}
	if discountType == DiscountTypePercent && value.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_VALUE", "Percent discount cannot exceed 100")
	}
	c.DiscountType = discountType
	c.Value = value
	c.UpdatedAt = time.Now()
	return nil
}

// Disable deactivates the coupon
func (c *Coupon) Disable() error {
	if !c.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Coupon is already inactive")
	}
	c.Active = false
	c.UpdatedAt = time.Now()
	return nil
}

// Enable reactivates the coupon
func (c *Coupon) Enable() error {
	if c.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "Coupon is already active")
	}
	c.Active = true
	c.UpdatedAt = time.Now()
	return nil
}
