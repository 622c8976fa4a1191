package inventory

import (
	"context"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockLedger guards product and variant stock with conditional writes.
//
// Every mutation is expressed as a single guarded statement
// ("decrement by N only if stock >= N") so that two concurrent callers can
// never both succeed beyond the available quantity. There is no external
// lock; the conditional write is the sole concurrency-safety mechanism.
// Callers that want a fast failure may read stock first, but that read is
// never trusted as the final guarantee.
type StockLedger interface {
	// DecrementStock reduces product stock by quantity if enough remains.
	// Returns the stock remaining after the decrement, or
	// ErrInsufficientStock when the precondition does not hold.
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error)

	// DecrementVariantStock is DecrementStock addressed at (productID, variantID)
	DecrementVariantStock(ctx context.Context, productID, variantID uuid.UUID, quantity int) (int, error)

	// IncrementStock increases product stock by quantity and returns the new value
	IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int, error)

	// IncrementVariantStock increases variant stock by quantity and returns the new value
	IncrementVariantStock(ctx context.Context, productID, variantID uuid.UUID, quantity int) (int, error)
}

// StockTransactionRepository is the append-only store for audit records
type StockTransactionRepository interface {
	Append(ctx context.Context, txn *StockTransaction) error
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockTransaction, error)
	FindByReference(ctx context.Context, refType ReferenceType, refID string) ([]StockTransaction, error)
}
