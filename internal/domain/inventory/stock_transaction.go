package inventory

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TransactionType classifies a stock movement
type TransactionType string

const (
	TransactionTypeSold     TransactionType = "sold"
	TransactionTypeAdded    TransactionType = "added"
	TransactionTypeAdjusted TransactionType = "adjusted"
)

// ReferenceType identifies the document a stock movement belongs to
type ReferenceType string

const (
	ReferenceTypeBill   ReferenceType = "bill"
	ReferenceTypeManual ReferenceType = "manual"
	ReferenceTypeOrder  ReferenceType = "order"
)

// StockTransaction is the immutable audit record for one stock-affecting
// operation. Rows are appended once and never updated or deleted.
type StockTransaction struct {
	shared.BaseEntity
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID      `gorm:"type:uuid;index"`
	Type      TransactionType `gorm:"type:varchar(20);not null"`
	Quantity  int             `gorm:"not null"`
	Before    int             `gorm:"not null"`
	After     int             `gorm:"not null"`
	RefType   ReferenceType   `gorm:"type:varchar(20);not null;default:'manual'"`
	RefID     string          `gorm:"type:varchar(50);index"`
	Note      string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// NewStockTransaction creates an audit record for a stock movement
func NewStockTransaction(
	productID uuid.UUID,
	variantID *uuid.UUID,
	txnType TransactionType,
	quantity, before, after int,
	refType ReferenceType,
	refID string,
) (*StockTransaction, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}

	return &StockTransaction{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		VariantID:  variantID,
		Type:       txnType,
		Quantity:   quantity,
		Before:     before,
		After:      after,
		RefType:    refType,
		RefID:      refID,
	}, nil
}

// WithNote attaches a free-form note to the audit record
func (t *StockTransaction) WithNote(note string) *StockTransaction {
	t.Note = note
	return t
}
