package trade

import (
	"fmt"
	"time"

	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderType classifies how an order originated
type OrderType string

const (
	OrderTypeCash    OrderType = "cash"
	OrderTypeOnline  OrderType = "online"
	OrderTypeEnquiry OrderType = "enquiry"
	// OrderTypeBill marks the synthetic order created for a direct bill,
	// kept for audit symmetry with orders converted into bills.
	OrderTypeBill OrderType = "bill"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusFulfilled OrderStatus = "fulfilled"
)

// Order is an originating record that may be converted into a bill.
// When a bill is created from an order the order is linked to the bill and
// marked fulfilled; a direct bill gets a synthetic order instead.
type Order struct {
	shared.BaseEntity
	Type          OrderType       `gorm:"type:varchar(20);not null;default:'enquiry'"`
	CustomerName  string          `gorm:"type:varchar(200);not null"`
	CustomerPhone string          `gorm:"type:varchar(20);not null"`
	CustomerEmail string          `gorm:"type:varchar(200)"`
	TotalEstimate decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;default:'new'"`
	BillID        *uuid.UUID      `gorm:"type:uuid;index"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewDirectBillOrder creates the synthetic fulfilled order recorded
// alongside a bill that did not originate from an existing order.
func NewDirectBillOrder(billID uuid.UUID, invoiceNumber, name, phone, email string, payable decimal.Decimal) *Order {
	return &Order{
		BaseEntity:    shared.NewBaseEntity(),
		Type:          OrderTypeBill,
		CustomerName:  name,
		CustomerPhone: phone,
		CustomerEmail: email,
		TotalEstimate: payable,
		Status:        OrderStatusFulfilled,
		BillID:        &billID,
		Notes:         fmt.Sprintf("Direct bill: %s", invoiceNumber),
	}
}

// Fulfill links the order to the bill it was converted into
func (o *Order) Fulfill(billID uuid.UUID, invoiceNumber string) error {
	if o.Status == OrderStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cancelled orders cannot be fulfilled")
	}
	if o.Status == OrderStatusFulfilled {
		return shared.NewDomainError("INVALID_STATE", "Order is already fulfilled")
	}
	o.Status = OrderStatusFulfilled
	o.BillID = &billID
	o.Notes = fmt.Sprintf("Auto-billed: %s", invoiceNumber)
	o.UpdatedAt = time.Now()
	return nil
}
