package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CouponService handles coupon management and standalone validation
type CouponService struct {
	coupons   billing.CouponRepository
	validator *CouponValidator
	logger    *zap.Logger
}

// NewCouponService creates a new CouponService
func NewCouponService(coupons billing.CouponRepository, validator *CouponValidator, logger *zap.Logger) *CouponService {
	return &CouponService{
		coupons:   coupons,
		validator: validator,
		logger:    logger,
	}
}

// Create creates a new coupon
func (s *CouponService) Create(ctx context.Context, req CreateCouponRequest) (*CouponResponse, error) {
	coupon, err := billing.NewCoupon(req.Code, billing.DiscountType(req.DiscountType), req.Value)
	if err != nil {
		return nil, err
	}
	if req.MinOrderAmount.IsNegative() || req.MaxTotalSales.IsNegative() || req.UsageLimit < 0 {
		return nil, shared.ErrInvalidInput
	}
	coupon.MinOrderAmount = req.MinOrderAmount
	coupon.ExpiresAt = req.ExpiresAt
	coupon.UsageLimit = req.UsageLimit
	coupon.MaxTotalSales = req.MaxTotalSales
	coupon.PartnerName = req.PartnerName
	coupon.PartnerPhone = req.PartnerPhone

	if existing, err := s.coupons.FindByCode(ctx, coupon.Code); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	}

	if err := s.coupons.Save(ctx, coupon); err != nil {
		return nil, err
	}
	s.logger.Info("coupon created", zap.String("code", coupon.Code))
	response := ToCouponResponse(coupon)
	return &response, nil
}

// Get retrieves a coupon by ID
func (s *CouponService) Get(ctx context.Context, id uuid.UUID) (*CouponResponse, error) {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCouponResponse(coupon)
	return &response, nil
}

// List returns a page of coupons
func (s *CouponService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[CouponResponse], error) {
	page, err := s.coupons.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]CouponResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = ToCouponResponse(&page.Items[i])
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Update replaces a coupon's terms and caps. Usage counters are preserved
// so an already-used coupon cannot be reset by editing it.
func (s *CouponService) Update(ctx context.Context, id uuid.UUID, req UpdateCouponRequest) (*CouponResponse, error) {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.MinOrderAmount.IsNegative() || req.MaxTotalSales.IsNegative() || req.UsageLimit < 0 {
		return nil, shared.ErrInvalidInput
	}
	if err := coupon.UpdateTerms(billing.DiscountType(req.DiscountType), req.Value); err != nil {
		return nil, err
	}
	coupon.MinOrderAmount = req.MinOrderAmount
	coupon.ExpiresAt = req.ExpiresAt
	coupon.UsageLimit = req.UsageLimit
	coupon.MaxTotalSales = req.MaxTotalSales
	coupon.PartnerName = req.PartnerName
	coupon.PartnerPhone = req.PartnerPhone

	if err := s.coupons.Save(ctx, coupon); err != nil {
		return nil, err
	}
	s.logger.Info("coupon updated", zap.String("code", coupon.Code))
	response := ToCouponResponse(coupon)
	return &response, nil
}

// Disable deactivates a coupon so it can no longer be applied
func (s *CouponService) Disable(ctx context.Context, id uuid.UUID) (*CouponResponse, error) {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := coupon.Disable(); err != nil {
		return nil, err
	}
	if err := s.coupons.Save(ctx, coupon); err != nil {
		return nil, err
	}
	response := ToCouponResponse(coupon)
	return &response, nil
}

// Enable reactivates a coupon
func (s *CouponService) Enable(ctx context.Context, id uuid.UUID) (*CouponResponse, error) {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := coupon.Enable(); err != nil {
		return nil, err
	}
	if err := s.coupons.Save(ctx, coupon); err != nil {
		return nil, err
	}
	response := ToCouponResponse(coupon)
	return &response, nil
}

// Delete removes a coupon. Only inactive coupons may be deleted so that
// codes referenced by committed bills disappear in two deliberate steps.
func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if coupon.Active {
		return shared.NewDomainError("COUPON_ACTIVE", "Disable the coupon before deleting it")
	}
	if err := s.coupons.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("coupon deleted", zap.String("code", coupon.Code))
	return nil
}

// Remove applies the two-step delete: the first call disables an active
// coupon, a second call removes the inactive coupon for good. Returns the
// disabled coupon on the first step and deleted=true on the second.
func (s *CouponService) Remove(ctx context.Context, id uuid.UUID) (*CouponResponse, bool, error) {
	coupon, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if coupon.Active {
		if err := coupon.Disable(); err != nil {
			return nil, false, err
		}
		if err := s.coupons.Save(ctx, coupon); err != nil {
			return nil, false, err
		}
		s.logger.Info("coupon disabled pending delete", zap.String("code", coupon.Code))
		response := ToCouponResponse(coupon)
		return &response, false, nil
	}
	if err := s.coupons.Delete(ctx, id); err != nil {
		return nil, false, err
	}
	s.logger.Info("coupon deleted", zap.String("code", coupon.Code))
	return nil, true, nil
}

// Validate checks whether a code applies to a total without consuming a use
func (s *CouponService) Validate(ctx context.Context, req ValidateCouponRequest) (*CouponValidationResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" || req.Total.IsNegative() {
		return nil, shared.ErrInvalidInput
	}

	evaluation, err := s.validator.Validate(ctx, code, req.Total)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "INVALID_COUPON" {
			return &CouponValidationResponse{
				Valid:    false,
				Reason:   strings.TrimPrefix(domainErr.Message, "Coupon rejected: "),
				Discount: decimal.Zero,
				Payable:  req.Total,
			}, nil
		}
		return nil, err
	}

	return &CouponValidationResponse{
		Valid:    true,
		Discount: evaluation.Discount,
		Payable:  evaluation.Payable,
	}, nil
}
