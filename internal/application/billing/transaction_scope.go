package billing

import (
	"context"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories the
// billing commit touches. When a function is executed within a transaction
// scope, all repository operations are part of the same database transaction
// and are committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories participating
// in a billing commit. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// StockLedger returns the conditional stock-write ledger scoped to the transaction
	StockLedger() inventory.StockLedger
	// StockTransactions returns the append-only audit repository scoped to the transaction
	StockTransactions() inventory.StockTransactionRepository
	// Bills returns the bill repository scoped to the transaction
	Bills() billing.BillRepository
	// Coupons returns the coupon repository scoped to the transaction
	Coupons() billing.CouponRepository
	// Customers returns the customer repository scoped to the transaction
	Customers() partner.CustomerRepository
	// Orders returns the order repository scoped to the transaction
	Orders() trade.OrderRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests where atomicity is provided by the fakes themselves.
type NoOpTransactionScope struct {
	stockLedger       inventory.StockLedger
	stockTransactions inventory.StockTransactionRepository
	bills             billing.BillRepository
	coupons           billing.CouponRepository
	customers         partner.CustomerRepository
	orders            trade.OrderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	stockLedger inventory.StockLedger,
	stockTransactions inventory.StockTransactionRepository,
	bills billing.BillRepository,
	coupons billing.CouponRepository,
	customers partner.CustomerRepository,
	orders trade.OrderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockLedger:       stockLedger,
		stockTransactions: stockTransactions,
		bills:             bills,
		coupons:           coupons,
		customers:         customers,
		orders:            orders,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockLedger returns the stock ledger
func (s *NoOpTransactionScope) StockLedger() inventory.StockLedger {
	return s.stockLedger
}

// StockTransactions returns the stock transaction repository
func (s *NoOpTransactionScope) StockTransactions() inventory.StockTransactionRepository {
	return s.stockTransactions
}

// Bills returns the bill repository
func (s *NoOpTransactionScope) Bills() billing.BillRepository {
	return s.bills
}

// Coupons returns the coupon repository
func (s *NoOpTransactionScope) Coupons() billing.CouponRepository {
	return s.coupons
}

// Customers returns the customer repository
func (s *NoOpTransactionScope) Customers() partner.CustomerRepository {
	return s.customers
}

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() trade.OrderRepository {
	return s.orders
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
