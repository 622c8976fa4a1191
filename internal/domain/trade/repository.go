package trade

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository provides access to orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Save(ctx context.Context, order *Order) error
}
