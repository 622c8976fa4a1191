package billing

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memState is a shared in-memory backing store for the fake repositories.
// Stock decrements and coupon usage use the same guarded semantics as the
// real persistence layer, and memScope serializes transactions with
// snapshot-restore rollback, so all-or-nothing behavior is observable.
type memState struct {
	mu   sync.Mutex
	txMu sync.Mutex

	products  map[uuid.UUID]*catalog.Product
	customers map[uuid.UUID]*partner.Customer
	orders    map[uuid.UUID]*trade.Order
	bills     map[uuid.UUID]*billing.Bill
	coupons   map[uuid.UUID]*billing.Coupon
	counters  map[string]int64
	stockTxns []inventory.StockTransaction

	failBillSave error
}

func newMemState() *memState {
	return &memState{
		products:  make(map[uuid.UUID]*catalog.Product),
		customers: make(map[uuid.UUID]*partner.Customer),
		orders:    make(map[uuid.UUID]*trade.Order),
		bills:     make(map[uuid.UUID]*billing.Bill),
		coupons:   make(map[uuid.UUID]*billing.Coupon),
		counters:  make(map[string]int64),
	}
}

func (s *memState) addProduct(p *catalog.Product) { s.products[p.ID] = p }
func (s *memState) addCoupon(c *billing.Coupon)   { s.coupons[c.ID] = c }
func (s *memState) addCustomer(c *partner.Customer) {
	s.customers[c.ID] = c
}

func copyProduct(p *catalog.Product) *catalog.Product {
	cp := *p
	cp.Variants = make([]catalog.ProductVariant, len(p.Variants))
	copy(cp.Variants, p.Variants)
	return &cp
}

type memSnapshot struct {
	products  map[uuid.UUID]*catalog.Product
	customers map[uuid.UUID]*partner.Customer
	orders    map[uuid.UUID]*trade.Order
	bills     map[uuid.UUID]*billing.Bill
	coupons   map[uuid.UUID]*billing.Coupon
	stockTxns int
}

func (s *memState) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		products:  make(map[uuid.UUID]*catalog.Product, len(s.products)),
		customers: make(map[uuid.UUID]*partner.Customer, len(s.customers)),
		orders:    make(map[uuid.UUID]*trade.Order, len(s.orders)),
		bills:     make(map[uuid.UUID]*billing.Bill, len(s.bills)),
		coupons:   make(map[uuid.UUID]*billing.Coupon, len(s.coupons)),
		stockTxns: len(s.stockTxns),
	}
	for id, p := range s.products {
		snap.products[id] = copyProduct(p)
	}
	for id, c := range s.customers {
		cp := *c
		snap.customers[id] = &cp
	}
	for id, o := range s.orders {
		cp := *o
		snap.orders[id] = &cp
	}
	for id, b := range s.bills {
		snap.bills[id] = b
	}
	for id, c := range s.coupons {
		cp := *c
		snap.coupons[id] = &cp
	}
	return snap
}

func (s *memState) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.customers = snap.customers
	s.orders = snap.orders
	s.bills = snap.bills
	s.coupons = snap.coupons
	s.stockTxns = s.stockTxns[:snap.stockTxns]
}

// memScope serializes transactions and rolls back on error
type memScope struct {
	state *memState
}

func (s *memScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.state.txMu.Lock()
	defer s.state.txMu.Unlock()
	snap := s.state.snapshot()
	if err := fn(s); err != nil {
		s.state.restore(snap)
		return err
	}
	return nil
}

func (s *memScope) StockLedger() inventory.StockLedger                     { return &memLedger{s.state} }
func (s *memScope) StockTransactions() inventory.StockTransactionRepository { return &memStockTxns{s.state} }
func (s *memScope) Bills() billing.BillRepository                          { return &memBills{s.state} }
func (s *memScope) Coupons() billing.CouponRepository                      { return &memCoupons{s.state} }
func (s *memScope) Customers() partner.CustomerRepository                  { return &memCustomers{s.state} }
func (s *memScope) Orders() trade.OrderRepository                          { return &memOrders{s.state} }

var _ TransactionScope = (*memScope)(nil)
var _ TransactionalRepositories = (*memScope)(nil)

// memProducts implements catalog.ProductRepository
type memProducts struct{ state *memState }

func (r *memProducts) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	p, ok := r.state.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyProduct(p), nil
}

func (r *memProducts) FindActiveByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	result := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.state.products[id]; ok && p.IsActive() {
			result = append(result, *copyProduct(p))
		}
	}
	return result, nil
}

func (r *memProducts) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	result := make([]catalog.Product, 0, len(r.state.products))
	for _, p := range r.state.products {
		result = append(result, *copyProduct(p))
	}
	return result, nil
}

func (r *memProducts) FindLowStock(_ context.Context, threshold int, ids []uuid.UUID) ([]catalog.Product, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	result := make([]catalog.Product, 0)
	for _, p := range r.state.products {
		if len(ids) > 0 && !wanted[p.ID] {
			continue
		}
		if p.IsActive() && p.IsLowStock(threshold) {
			result = append(result, *copyProduct(p))
		}
	}
	return result, nil
}

func (r *memProducts) Save(_ context.Context, product *catalog.Product) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.products[product.ID] = copyProduct(product)
	return nil
}

func (r *memProducts) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return int64(len(r.state.products)), nil
}

var _ catalog.ProductRepository = (*memProducts)(nil)

// memLedger implements the guarded stock writes against memState
type memLedger struct{ state *memState }

func (l *memLedger) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) (int, error) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	p, ok := l.state.products[productID]
	if !ok {
		return 0, shared.ErrProductNotFound
	}
	if p.Stock < quantity {
		return 0, shared.ErrInsufficientStock
	}
	p.Stock -= quantity
	return p.Stock, nil
}

func (l *memLedger) DecrementVariantStock(_ context.Context, productID, variantID uuid.UUID, quantity int) (int, error) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	p, ok := l.state.products[productID]
	if !ok {
		return 0, shared.ErrProductNotFound
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			if p.Variants[i].Stock < quantity {
				return 0, shared.ErrInsufficientStock
			}
			p.Variants[i].Stock -= quantity
			return p.Variants[i].Stock, nil
		}
	}
	return 0, shared.ErrProductNotFound
}

func (l *memLedger) IncrementStock(_ context.Context, productID uuid.UUID, quantity int) (int, error) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	p, ok := l.state.products[productID]
	if !ok {
		return 0, shared.ErrProductNotFound
	}
	p.Stock += quantity
	return p.Stock, nil
}

func (l *memLedger) IncrementVariantStock(_ context.Context, productID, variantID uuid.UUID, quantity int) (int, error) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	p, ok := l.state.products[productID]
	if !ok {
		return 0, shared.ErrProductNotFound
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			p.Variants[i].Stock += quantity
			return p.Variants[i].Stock, nil
		}
	}
	return 0, shared.ErrProductNotFound
}

var _ inventory.StockLedger = (*memLedger)(nil)

// memStockTxns implements inventory.StockTransactionRepository
type memStockTxns struct{ state *memState }

func (r *memStockTxns) Append(_ context.Context, txn *inventory.StockTransaction) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.stockTxns = append(r.state.stockTxns, *txn)
	return nil
}

func (r *memStockTxns) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockTransaction, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	result := make([]inventory.StockTransaction, 0)
	for _, txn := range r.state.stockTxns {
		if txn.ProductID == productID {
			result = append(result, txn)
		}
	}
	return result, nil
}

func (r *memStockTxns) FindByReference(_ context.Context, refType inventory.ReferenceType, refID string) ([]inventory.StockTransaction, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	result := make([]inventory.StockTransaction, 0)
	for _, txn := range r.state.stockTxns {
		if txn.RefType == refType && txn.RefID == refID {
			result = append(result, txn)
		}
	}
	return result, nil
}

var _ inventory.StockTransactionRepository = (*memStockTxns)(nil)

// memBills implements billing.BillRepository
type memBills struct{ state *memState }

func (r *memBills) FindByID(_ context.Context, id uuid.UUID) (*billing.Bill, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	b, ok := r.state.bills[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (r *memBills) FindByInvoiceNumber(_ context.Context, invoiceNumber string) (*billing.Bill, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, b := range r.state.bills {
		if b.InvoiceNumber == invoiceNumber {
			return b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBills) FindByCustomer(_ context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[billing.Bill], error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	items := make([]billing.Bill, 0)
	for _, b := range r.state.bills {
		if b.CustomerID == customerID {
			items = append(items, *b)
		}
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *memBills) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[billing.Bill], error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	items := make([]billing.Bill, 0, len(r.state.bills))
	for _, b := range r.state.bills {
		items = append(items, *b)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *memBills) SumPayableByCouponCode(_ context.Context, code string) (decimal.Decimal, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	sum := decimal.Zero
	for _, b := range r.state.bills {
		if strings.EqualFold(b.CouponCode, code) {
			sum = sum.Add(b.Payable)
		}
	}
	return sum, nil
}

func (r *memBills) Save(_ context.Context, bill *billing.Bill) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if r.state.failBillSave != nil {
		return r.state.failBillSave
	}
	r.state.bills[bill.ID] = bill
	return nil
}

var _ billing.BillRepository = (*memBills)(nil)

// memCoupons implements billing.CouponRepository
type memCoupons struct{ state *memState }

func (r *memCoupons) FindByID(_ context.Context, id uuid.UUID) (*billing.Coupon, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	c, ok := r.state.coupons[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCoupons) FindByCode(_ context.Context, code string) (*billing.Coupon, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, c := range r.state.coupons {
		if strings.EqualFold(c.Code, code) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCoupons) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[billing.Coupon], error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	items := make([]billing.Coupon, 0, len(r.state.coupons))
	for _, c := range r.state.coupons {
		items = append(items, *c)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *memCoupons) Save(_ context.Context, coupon *billing.Coupon) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	cp := *coupon
	r.state.coupons[coupon.ID] = &cp
	return nil
}

func (r *memCoupons) Delete(_ context.Context, id uuid.UUID) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	if _, ok := r.state.coupons[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.state.coupons, id)
	return nil
}

func (r *memCoupons) ConsumeUsage(_ context.Context, couponID uuid.UUID, payable decimal.Decimal) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	c, ok := r.state.coupons[couponID]
	if !ok {
		return shared.ErrNotFound
	}
	if c.HasUsageLimit() && c.UsedCount >= c.UsageLimit {
		return shared.ErrInvalidCoupon
	}
	if c.HasSalesCap() && c.TotalSales.Add(payable).GreaterThan(c.MaxTotalSales) {
		return shared.ErrInvalidCoupon
	}
	c.UsedCount++
	c.TotalSales = c.TotalSales.Add(payable)
	return nil
}

var _ billing.CouponRepository = (*memCoupons)(nil)

// memCustomers implements partner.CustomerRepository
type memCustomers struct{ state *memState }

func (r *memCustomers) FindByID(_ context.Context, id uuid.UUID) (*partner.Customer, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	c, ok := r.state.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCustomers) FindByPhone(_ context.Context, phone string) (*partner.Customer, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, c := range r.state.customers {
		if c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCustomers) Save(_ context.Context, customer *partner.Customer) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	cp := *customer
	r.state.customers[customer.ID] = &cp
	return nil
}

func (r *memCustomers) RecordPurchase(_ context.Context, customerID uuid.UUID, at time.Time) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	c, ok := r.state.customers[customerID]
	if !ok {
		return shared.ErrNotFound
	}
	c.RecordPurchase(at)
	return nil
}

var _ partner.CustomerRepository = (*memCustomers)(nil)

// memOrders implements trade.OrderRepository
type memOrders struct{ state *memState }

func (r *memOrders) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	o, ok := r.state.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrders) Save(_ context.Context, order *trade.Order) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	cp := *order
	r.state.orders[order.ID] = &cp
	return nil
}

var _ trade.OrderRepository = (*memOrders)(nil)

// memCounters implements billing.CounterRepository
type memCounters struct{ state *memState }

func (r *memCounters) NextValue(_ context.Context, key string) (int64, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.counters[key]++
	return r.state.counters[key], nil
}

var _ billing.CounterRepository = (*memCounters)(nil)

// memIdempotencyStore implements shared.IdempotencyStore in memory
type memIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{entries: make(map[string]string)}
}

func (s *memIdempotencyStore) Remember(_ context.Context, key, result string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false, nil
	}
	s.entries[key] = result
	return true, nil
}

func (s *memIdempotencyStore) Lookup(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *memIdempotencyStore) Close() error { return nil }

var _ shared.IdempotencyStore = (*memIdempotencyStore)(nil)

// failingNotifier always fails, for exercising post-commit error tolerance
type failingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *failingNotifier) NotifyLowStock(_ context.Context, _ LowStockReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return context.DeadlineExceeded
}

// recordingNotifier captures reports for assertions
type recordingNotifier struct {
	mu      sync.Mutex
	reports []LowStockReport
}

func (n *recordingNotifier) NotifyLowStock(_ context.Context, report LowStockReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	return nil
}
