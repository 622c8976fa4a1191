package catalog

import (
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductVariant is a specific attribute combination of a product with its
// own price and stock. Stock mutations address the variant row directly
// instead of rewriting the parent aggregate.
type ProductVariant struct {
	shared.BaseEntity
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Label     string          `gorm:"type:varchar(200);not null"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Stock     int             `gorm:"not null;default:0;check:stock >= 0"`
	ImageURL  string          `gorm:"type:text"`
	Active    bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// NewProductVariant creates a new variant for a product
func NewProductVariant(productID uuid.UUID, label string, price decimal.Decimal, stock int) (*ProductVariant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if label == "" {
		return nil, shared.NewDomainError("INVALID_LABEL", "Variant label cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.ErrInvalidQuantity
	}

	return &ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Label:      label,
		Price:      price,
		Stock:      stock,
		Active:     true,
	}, nil
}

// CanFulfill returns true if variant stock covers the requested quantity
func (v *ProductVariant) CanFulfill(quantity int) bool {
	return v.Stock >= quantity
}

// ImageOrDefault returns the variant image, falling back to the given default
func (v *ProductVariant) ImageOrDefault(fallback string) string {
	if v.ImageURL != "" {
		return v.ImageURL
	}
	return fallback
}
