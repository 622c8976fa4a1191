package billing

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillRepository provides access to committed bills
type BillRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Bill, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[Bill], error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[Bill], error)
	// SumPayableByCouponCode totals the payable amounts of all bills that
	// carry the given coupon code. Used to enforce aggregate sales caps.
	SumPayableByCouponCode(ctx context.Context, code string) (decimal.Decimal, error)
	Save(ctx context.Context, bill *Bill) error
}

// CouponRepository provides access to coupons
type CouponRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[Coupon], error)
	Save(ctx context.Context, coupon *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ConsumeUsage records one successful use of the coupon, adding payable
	// to its aggregate sales, as a single guarded write: it fails with
	// ErrInvalidCoupon if the usage limit or the sales cap would be exceeded.
	// This runs inside the billing commit and is the authoritative check.
	ConsumeUsage(ctx context.Context, couponID uuid.UUID, payable decimal.Decimal) error
}

// CounterRepository is the atomic per-key sequence source.
// NextValue increments the counter for key and returns the new value in the
// same operation; a missing key starts at zero, so the first call yields 1.
type CounterRepository interface {
	NextValue(ctx context.Context, key string) (int64, error)
}
