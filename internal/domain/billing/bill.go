package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentType represents how a bill was paid
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCard   PaymentType = "card"
	PaymentTypeUPI    PaymentType = "upi"
	PaymentTypeCredit PaymentType = "credit"
)

// GSTBreakdown maps a GST rate (as its string form, e.g. "18") to the
// summed GST amount charged at that rate. Stored as a JSON column.
type GSTBreakdown map[string]decimal.Decimal

// Value implements driver.Valuer
func (b GSTBreakdown) Value() (driver.Value, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner
func (b *GSTBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = GSTBreakdown{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for GSTBreakdown: %T", value)
	}
	return json.Unmarshal(data, b)
}

// BillItem is the immutable snapshot of one sold line. Product attributes
// are copied at billing time so later catalog edits never change the bill.
type BillItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BillID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null"`
	VariantID *uuid.UUID `gorm:"type:uuid"`

	Name         string          `gorm:"type:varchar(200);not null"`
	VariantLabel string          `gorm:"type:varchar(100)"`
	Category     string          `gorm:"type:varchar(100)"`
	HSNCode      string          `gorm:"type:varchar(20)"`
	ImageURL     string          `gorm:"type:text"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GSTRate      decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Quantity     int             `gorm:"not null"`
	LineSubtotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineGST      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (BillItem) TableName() string {
	return "bill_items"
}

// Bill is the immutable invoice record. It is created exactly once per
// successful billing transaction and never updated afterwards.
type Bill struct {
	shared.BaseEntity
	InvoiceNumber string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerName  string    `gorm:"type:varchar(200);not null"`
	CustomerPhone string    `gorm:"type:varchar(20);not null"`

	Items []BillItem `gorm:"foreignKey:BillID;references:ID"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GSTTotal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GrandTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Discount     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Payable      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CouponCode   string          `gorm:"type:varchar(50);index"`
	GSTBreakdown GSTBreakdown    `gorm:"type:jsonb"`
	PaymentType  PaymentType     `gorm:"type:varchar(20);not null;default:'cash'"`
}

// TableName returns the table name for GORM
func (Bill) TableName() string {
	return "bills"
}

// NewBill assembles an invoice from a priced result and the applied discount.
// Payable = grand total - discount; the discount has already been capped by
// coupon validation so payable never goes negative here.
func NewBill(invoiceNumber string, customerID uuid.UUID, customerName, customerPhone string, pricing *PricingResult, discount decimal.Decimal, couponCode string, paymentType PaymentType) (*Bill, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if pricing == nil || len(pricing.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_BILL", "Bill must contain at least one item")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if paymentType == "" {
		paymentType = PaymentTypeCash
	}

	bill := &Bill{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceNumber: invoiceNumber,
		CustomerID:    customerID,
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
		Subtotal:      pricing.Subtotal,
		GSTTotal:      pricing.GSTTotal,
		GrandTotal:    pricing.Total,
		Discount:      discount,
		Payable:       pricing.Total.Sub(discount),
		CouponCode:    couponCode,
		GSTBreakdown:  pricing.GSTBreakdown,
		PaymentType:   paymentType,
	}

	bill.Items = make([]BillItem, len(pricing.Items))
	copy(bill.Items, pricing.Items)
	for i := range bill.Items {
		bill.Items[i].ID = uuid.New()
		bill.Items[i].BillID = bill.ID
	}
	return bill, nil
}
