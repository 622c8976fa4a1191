package catalog

import (
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product represents a sellable item in the catalog.
// It is the aggregate root for catalog operations; variants are child rows
// with their own price and stock, addressed by (productID, variantID).
type Product struct {
	shared.BaseEntity
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Category    string          `gorm:"type:varchar(100);index"`
	HSNCode     string          `gorm:"type:varchar(20)"`
	ImageURL    string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GSTRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0"`

	// Bulk tier: when a line quantity reaches BulkQuantity, the unit price
	// is reduced by BulkReduction (floored at zero).
	BulkQuantity  int             `gorm:"not null;default:0"`
	BulkReduction decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	RatingAvg   decimal.Decimal `gorm:"type:decimal(3,2);not null;default:0"`
	RatingCount int             `gorm:"not null;default:0"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;default:'active'"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name string, price, gstRate decimal.Decimal, stock int) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if gstRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_GST_RATE", "GST rate cannot be negative")
	}
	if stock < 0 {
		return nil, shared.ErrInvalidQuantity
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Category:   "General",
		Price:      price,
		GSTRate:    gstRate,
		Stock:      stock,
		Status:     ProductStatusActive,
		Variants:   make([]ProductVariant, 0),
	}, nil
}

// SetBulkTier configures the bulk-discount tier
func (p *Product) SetBulkTier(quantity int, reduction decimal.Decimal) error {
	if quantity < 0 {
		return shared.ErrInvalidQuantity
	}
	if reduction.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Bulk reduction cannot be negative")
	}
	p.BulkQuantity = quantity
	p.BulkReduction = reduction
	p.UpdatedAt = time.Now()
	return nil
}

// Deactivate deactivates the product. Products are never deleted.
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	return nil
}

// Activate reactivates the product
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	p.Status = ProductStatusActive
	p.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasBulkTier returns true if a bulk-discount tier is configured
func (p *Product) HasBulkTier() bool {
	return p.BulkQuantity > 0
}

// EffectiveUnitPrice returns the unit price for a given quantity,
// applying the bulk tier when the quantity reaches the threshold.
// The result is floored at zero.
func (p *Product) EffectiveUnitPrice(quantity int) decimal.Decimal {
	price := p.Price
	if p.HasBulkTier() && quantity >= p.BulkQuantity {
		price = price.Sub(p.BulkReduction)
		if price.IsNegative() {
			price = decimal.Zero
		}
	}
	return price
}

// Variant returns the variant with the given ID, or nil when absent
func (p *Product) Variant(variantID string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID.String() == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// IsLowStock returns true if the product stock is at or below the threshold
func (p *Product) IsLowStock(threshold int) bool {
	return p.Stock <= threshold
}
