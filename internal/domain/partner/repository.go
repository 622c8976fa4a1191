package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CustomerRepository provides access to customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
	// RecordPurchase appends a bill to the customer's purchase stats.
	// It runs inside the billing commit, so it must be a single statement.
	RecordPurchase(ctx context.Context, customerID uuid.UUID, at time.Time) error
}
