package billing

import (
	"context"
	"errors"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CouponEvaluation is the outcome of validating a coupon against a total
type CouponEvaluation struct {
	Coupon   *billing.Coupon
	Discount decimal.Decimal
	Payable  decimal.Decimal
}

// CouponValidator validates a discount code against a pre-discount total.
// It only reads state: consuming a use happens inside the billing commit so
// that a later transaction failure does not burn the coupon.
type CouponValidator struct {
	coupons billing.CouponRepository
	bills   billing.BillRepository
}

// NewCouponValidator creates a new CouponValidator
func NewCouponValidator(coupons billing.CouponRepository, bills billing.BillRepository) *CouponValidator {
	return &CouponValidator{coupons: coupons, bills: bills}
}

// Validate evaluates the coupon for the given pre-discount total and returns
// the computed discount and payable amount. The aggregate-sales cap is checked
// against the payable sum of all prior bills carrying this code; a request
// that would push the cumulative total past the cap is rejected without
// mutating anything.
func (v *CouponValidator) Validate(ctx context.Context, code string, total decimal.Decimal) (*CouponEvaluation, error) {
	coupon, err := v.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, billing.NewCouponRejection(billing.RejectUnknownCode)
		}
		return nil, err
	}

	if err := coupon.CheckApplicable(total, time.Now()); err != nil {
		return nil, err
	}

	discount := coupon.Discount(total)
	payable := total.Sub(discount)

	if coupon.HasSalesCap() {
		priorSum, err := v.bills.SumPayableByCouponCode(ctx, coupon.Code)
		if err != nil {
			return nil, err
		}
		if priorSum.Add(payable).GreaterThan(coupon.MaxTotalSales) {
			return nil, billing.NewCouponRejection(billing.RejectSalesCapExceeded)
		}
	}

	return &CouponEvaluation{
		Coupon:   coupon,
		Discount: discount,
		Payable:  payable,
	}, nil
}
