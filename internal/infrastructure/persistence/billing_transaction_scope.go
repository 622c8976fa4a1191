package persistence

import (
	"context"

	appbilling "github.com/billing/backend/internal/application/billing"
	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to the function shares the one *gorm.DB
// transaction, so the billing commit is all-or-nothing.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides transaction-scoped repositories
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// StockLedger returns a transaction-scoped stock ledger
func (r *gormTransactionalRepositories) StockLedger() inventory.StockLedger {
	return NewGormStockLedger(r.tx)
}

// StockTransactions returns a transaction-scoped audit repository
func (r *gormTransactionalRepositories) StockTransactions() inventory.StockTransactionRepository {
	return NewGormStockTransactionRepository(r.tx)
}

// Bills returns a transaction-scoped bill repository
func (r *gormTransactionalRepositories) Bills() billing.BillRepository {
	return NewGormBillRepository(r.tx)
}

// Coupons returns a transaction-scoped coupon repository
func (r *gormTransactionalRepositories) Coupons() billing.CouponRepository {
	return NewGormCouponRepository(r.tx)
}

// Customers returns a transaction-scoped customer repository
func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Orders returns a transaction-scoped order repository
func (r *gormTransactionalRepositories) Orders() trade.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// Ensure interfaces are satisfied
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
