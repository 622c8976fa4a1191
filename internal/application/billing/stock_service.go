package billing

import (
	"context"

	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockService handles stock operations outside of billing: manual
// adjustments, the audit trail, and low-stock reporting. Adjustments go
// through the same conditional-write ledger as billing so the stock >= 0
// invariant stays centrally enforced.
type StockService struct {
	products  catalog.ProductRepository
	txScope   TransactionScope
	threshold int
	logger    *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(products catalog.ProductRepository, txScope TransactionScope, logger *zap.Logger) *StockService {
	return &StockService{
		products:  products,
		txScope:   txScope,
		threshold: DefaultLowStockThreshold,
		logger:    logger,
	}
}

// SetLowStockThreshold overrides the default low-stock threshold
func (s *StockService) SetLowStockThreshold(threshold int) {
	if threshold > 0 {
		s.threshold = threshold
	}
}

// Adjust applies a signed stock change and appends its audit row atomically.
// Negative deltas fail with InsufficientStock if the guard does not hold.
func (s *StockService) Adjust(ctx context.Context, req AdjustStockRequest) (*StockAdjustmentResponse, error) {
	if req.Delta == 0 {
		return nil, shared.ErrInvalidQuantity
	}

	var response *StockAdjustmentResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		quantity := req.Delta
		txnType := inventory.TransactionTypeAdded
		if quantity < 0 {
			quantity = -quantity
			txnType = inventory.TransactionTypeAdjusted
		}

		var after int
		var err error
		switch {
		case req.Delta > 0 && req.VariantID != nil:
			after, err = repos.StockLedger().IncrementVariantStock(ctx, req.ProductID, *req.VariantID, quantity)
		case req.Delta > 0:
			after, err = repos.StockLedger().IncrementStock(ctx, req.ProductID, quantity)
		case req.VariantID != nil:
			after, err = repos.StockLedger().DecrementVariantStock(ctx, req.ProductID, *req.VariantID, quantity)
		default:
			after, err = repos.StockLedger().DecrementStock(ctx, req.ProductID, quantity)
		}
		if err != nil {
			return err
		}

		before := after - req.Delta
		txn, err := inventory.NewStockTransaction(
			req.ProductID, req.VariantID, txnType,
			quantity, before, after,
			inventory.ReferenceTypeManual, "",
		)
		if err != nil {
			return err
		}
		if req.Note != "" {
			txn.WithNote(req.Note)
		}
		if err := repos.StockTransactions().Append(ctx, txn); err != nil {
			return err
		}

		response = &StockAdjustmentResponse{
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Before:    before,
			After:     after,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("product_id", req.ProductID.String()),
		zap.Int("delta", req.Delta),
		zap.Int("after", response.After))
	return response, nil
}

// LowStock reports all active products at or below the configured threshold
func (s *StockService) LowStock(ctx context.Context) (*LowStockReport, error) {
	low, err := s.products.FindLowStock(ctx, s.threshold, nil)
	if err != nil {
		return nil, err
	}
	report := &LowStockReport{Threshold: s.threshold, Products: make([]LowStockProduct, len(low))}
	for i, product := range low {
		report.Products[i] = LowStockProduct{
			ProductID: product.ID,
			Name:      product.Name,
			Stock:     product.Stock,
		}
	}
	return report, nil
}

// History returns the audit trail for a product
func (s *StockService) History(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockTransaction, error) {
	var transactions []inventory.StockTransaction
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		transactions, err = repos.StockTransactions().FindByProduct(ctx, productID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
