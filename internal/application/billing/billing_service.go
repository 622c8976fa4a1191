package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is the stock level at or below which a product
// is reported to the notification collaborator
const DefaultLowStockThreshold = 5

// stage identifies where the coordinator is in its pipeline, for logs and
// for pinpointing which phase rejected a request.
type stage string

const (
	stageResolvingCustomer stage = "resolving_customer"
	stageResolvingCatalog  stage = "resolving_catalog"
	stagePricing           stage = "pricing"
	stageApplyingCoupon    stage = "applying_coupon"
	stageSequencing        stage = "sequencing_invoice"
	stageCommitting        stage = "committing"
	stageCommitted         stage = "committed"
)

// BillingService coordinates a billing request end to end: it resolves the
// customer and catalog, prices the lines, validates any coupon, obtains an
// invoice number, and then executes one atomic commit covering every stock
// decrement, the bill, the customer/order updates, and the coupon usage.
// Only a successful commit triggers the low-stock notifier.
type BillingService struct {
	products    catalog.ProductRepository
	customers   partner.CustomerRepository
	orders      trade.OrderRepository
	bills       billing.BillRepository
	counters    billing.CounterRepository
	validator   *CouponValidator
	txScope     TransactionScope
	notifier    LowStockNotifier
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	threshold   int
	logger      *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(
	products catalog.ProductRepository,
	customers partner.CustomerRepository,
	orders trade.OrderRepository,
	bills billing.BillRepository,
	counters billing.CounterRepository,
	validator *CouponValidator,
	txScope TransactionScope,
	notifier LowStockNotifier,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		products:   products,
		customers:  customers,
		orders:     orders,
		bills:      bills,
		counters:   counters,
		validator:  validator,
		txScope:    txScope,
		notifier:   notifier,
		idemConfig: shared.DefaultIdempotencyConfig(),
		threshold:  DefaultLowStockThreshold,
		logger:     logger,
	}
}

// SetLowStockThreshold overrides the default low-stock threshold
func (s *BillingService) SetLowStockThreshold(threshold int) {
	if threshold > 0 {
		s.threshold = threshold
	}
}

// SetIdempotencyStore enables idempotent billing retries
func (s *BillingService) SetIdempotencyStore(store shared.IdempotencyStore, config shared.IdempotencyConfig) {
	s.idempotency = store
	s.idemConfig = config
}

// CreateBill runs the full billing pipeline and returns the committed bill.
// idempotencyKey may be empty; when set and already seen, the previously
// committed bill is returned instead of billing again.
func (s *BillingService) CreateBill(ctx context.Context, req CreateBillRequest, idempotencyKey string) (*BillResponse, error) {
	if idempotencyKey != "" && s.idempotency != nil && s.idemConfig.Enabled {
		if invoiceNumber, err := s.idempotency.Lookup(ctx, idempotencyKey); err == nil && invoiceNumber != "" {
			bill, err := s.bills.FindByInvoiceNumber(ctx, invoiceNumber)
			if err == nil {
				s.logger.Info("billing request replayed from idempotency store",
					zap.String("invoice_number", invoiceNumber))
				response := ToBillResponse(bill)
				return &response, nil
			}
		}
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}

	products, lines, err := s.resolveCatalog(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	pricing, err := billing.PriceLines(products, lines)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	var coupon *billing.Coupon
	couponCode := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	if couponCode != "" {
		evaluation, err := s.validator.Validate(ctx, couponCode, pricing.Total)
		if err != nil {
			return nil, err
		}
		coupon = evaluation.Coupon
		discount = evaluation.Discount
	}

	// The invoice number is obtained before the commit because it is
	// embedded in the stock audit rows and the bill itself. A commit that
	// later aborts leaves a gap in the day's sequence, which is tolerated.
	now := time.Now()
	sequence, err := s.counters.NextValue(ctx, billing.CounterKey(now))
	if err != nil {
		return nil, err
	}
	invoiceNumber := billing.FormatInvoiceNumber(now, sequence)

	bill, err := billing.NewBill(invoiceNumber, customer.ID, customer.Name, customer.Phone, pricing, discount, couponCode, billing.PaymentType(req.PaymentType))
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, item := range bill.Items {
			if err := decrementLine(ctx, repos, item, invoiceNumber); err != nil {
				return err
			}
		}
		if err := repos.Bills().Save(ctx, bill); err != nil {
			return err
		}
		if err := repos.Customers().RecordPurchase(ctx, customer.ID, bill.CreatedAt); err != nil {
			return err
		}
		if err := s.linkOrder(ctx, repos, req.OrderID, bill, customer); err != nil {
			return err
		}
		if coupon != nil {
			if err := repos.Coupons().ConsumeUsage(ctx, coupon.ID, bill.Payable); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("billing commit aborted",
			zap.String("stage", string(stageCommitting)),
			zap.String("invoice_number", invoiceNumber),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("bill committed",
		zap.String("stage", string(stageCommitted)),
		zap.String("invoice_number", invoiceNumber),
		zap.String("customer_id", customer.ID.String()),
		zap.String("payable", bill.Payable.String()))

	if idempotencyKey != "" && s.idempotency != nil && s.idemConfig.Enabled {
		if _, err := s.idempotency.Remember(ctx, idempotencyKey, invoiceNumber, s.idemConfig.TTL); err != nil {
			s.logger.Warn("failed to remember idempotency key", zap.Error(err))
		}
	}

	s.notifyLowStock(ctx, bill)

	response := ToBillResponse(bill)
	return &response, nil
}

// GetBill retrieves a committed bill by ID
func (s *BillingService) GetBill(ctx context.Context, id uuid.UUID) (*BillResponse, error) {
	bill, err := s.bills.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToBillResponse(bill)
	return &response, nil
}

// GetBillByInvoiceNumber retrieves a committed bill by its invoice number
func (s *BillingService) GetBillByInvoiceNumber(ctx context.Context, invoiceNumber string) (*BillResponse, error) {
	bill, err := s.bills.FindByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	response := ToBillResponse(bill)
	return &response, nil
}

// ListBills returns a page of committed bills
func (s *BillingService) ListBills(ctx context.Context, filter shared.Filter) (*shared.Paginated[BillResponse], error) {
	page, err := s.bills.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]BillResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = ToBillResponse(&page.Items[i])
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// ListCustomerBills returns a page of a customer's purchase history
func (s *BillingService) ListCustomerBills(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[BillResponse], error) {
	page, err := s.bills.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]BillResponse, len(page.Items))
	for i := range page.Items {
		responses[i] = ToBillResponse(&page.Items[i])
	}
	result := shared.NewPaginated(responses, page.Total, page.Page, page.PageSize)
	return &result, nil
}

func validateRequest(req CreateBillRequest) error {
	if len(req.Items) == 0 {
		return shared.NewDomainError("EMPTY_BILL", "Bill must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return shared.ErrInvalidQuantity
		}
	}
	if req.CustomerID == nil {
		if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" {
			return shared.NewDomainError("INVALID_CUSTOMER", "Customer name and phone are required when no customer ID is given")
		}
	}
	return nil
}

// resolveCustomer finds the customer by id or phone, creating a walk-in
// record when neither resolves. An explicit id that does not resolve is an
// error rather than a trigger for creation.
func (s *BillingService) resolveCustomer(ctx context.Context, req CreateBillRequest) (*partner.Customer, error) {
	if req.CustomerID != nil {
		customer, err := s.customers.FindByID(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.ErrCustomerNotFound
			}
			return nil, err
		}
		return customer, nil
	}

	customer, err := s.customers.FindByPhone(ctx, req.CustomerPhone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	customer, err = partner.NewCustomer(req.CustomerName, req.CustomerPhone, req.CustomerEmail, req.CustomerAddress)
	if err != nil {
		return nil, err
	}
	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.logger.Info("walk-in customer created",
		zap.String("stage", string(stageResolvingCustomer)),
		zap.String("customer_id", customer.ID.String()))
	return customer, nil
}

// resolveCatalog loads every requested product and runs the non-authoritative
// stock pre-check. The pre-check fails fast for clearly-insufficient requests
// but the conditional decrement inside the commit remains the real guarantee.
func (s *BillingService) resolveCatalog(ctx context.Context, items []BillingItemRequest) (map[uuid.UUID]*catalog.Product, []billing.LineRequest, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	found, err := s.products.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	products := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	lines := make([]billing.LineRequest, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, nil, shared.ErrProductNotFound
		}
		if item.VariantID != nil {
			variant := product.Variant(item.VariantID.String())
			if variant == nil {
				return nil, nil, shared.ErrProductNotFound
			}
			if !variant.CanFulfill(item.Quantity) {
				return nil, nil, insufficientStock(product.Name, variant.Label)
			}
		} else if product.Stock < item.Quantity {
			return nil, nil, insufficientStock(product.Name, "")
		}
		lines = append(lines, billing.LineRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return products, lines, nil
}

// decrementLine performs the authoritative conditional decrement for one
// invoice line and appends its audit row.
func decrementLine(ctx context.Context, repos TransactionalRepositories, item billing.BillItem, invoiceNumber string) error {
	var remaining int
	var err error
	if item.VariantID != nil {
		remaining, err = repos.StockLedger().DecrementVariantStock(ctx, item.ProductID, *item.VariantID, item.Quantity)
	} else {
		remaining, err = repos.StockLedger().DecrementStock(ctx, item.ProductID, item.Quantity)
	}
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			return insufficientStock(item.Name, item.VariantLabel)
		}
		return err
	}

	txn, err := inventory.NewStockTransaction(
		item.ProductID, item.VariantID,
		inventory.TransactionTypeSold,
		item.Quantity, remaining+item.Quantity, remaining,
		inventory.ReferenceTypeBill, invoiceNumber,
	)
	if err != nil {
		return err
	}
	return repos.StockTransactions().Append(ctx, txn)
}

// linkOrder marks an originating order fulfilled, or records a synthetic
// direct-bill order when the bill had no originating order.
func (s *BillingService) linkOrder(ctx context.Context, repos TransactionalRepositories, orderID *uuid.UUID, bill *billing.Bill, customer *partner.Customer) error {
	if orderID != nil {
		order, err := repos.Orders().FindByID(ctx, *orderID)
		if err != nil {
			return err
		}
		if err := order.Fulfill(bill.ID, bill.InvoiceNumber); err != nil {
			return err
		}
		return repos.Orders().Save(ctx, order)
	}
	order := trade.NewDirectBillOrder(bill.ID, bill.InvoiceNumber, customer.Name, customer.Phone, "", bill.Payable)
	return repos.Orders().Save(ctx, order)
}

// notifyLowStock runs after the commit. It may interleave freely with later
// transactions; failures are logged and never surfaced to the caller.
func (s *BillingService) notifyLowStock(ctx context.Context, bill *billing.Bill) {
	if s.notifier == nil {
		return
	}

	ids := make([]uuid.UUID, 0, len(bill.Items))
	seen := make(map[uuid.UUID]bool, len(bill.Items))
	for _, item := range bill.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	low, err := s.products.FindLowStock(ctx, s.threshold, ids)
	if err != nil {
		s.logger.Error("low-stock check failed", zap.Error(err))
		return
	}
	if len(low) == 0 {
		return
	}

	report := LowStockReport{Threshold: s.threshold, Products: make([]LowStockProduct, len(low))}
	for i, product := range low {
		report.Products[i] = LowStockProduct{
			ProductID: product.ID,
			Name:      product.Name,
			Stock:     product.Stock,
		}
	}
	if err := s.notifier.NotifyLowStock(ctx, report); err != nil {
		s.logger.Error("low-stock notification failed",
			zap.String("invoice_number", bill.InvoiceNumber),
			zap.Error(err))
	}
}

func insufficientStock(productName, variantLabel string) error {
	identifier := productName
	if variantLabel != "" {
		identifier = productName + " (" + variantLabel + ")"
	}
	return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for "+identifier)
}
