package partner

import (
	"strings"
	"time"

	"github.com/billing/backend/internal/domain/shared"
)

// Customer represents a buyer. Purchase history is the bills relation;
// the aggregate keeps running stats that are appended on every commit.
type Customer struct {
	shared.BaseEntity
	Name    string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(20);not null;uniqueIndex"`
	Email   string `gorm:"type:varchar(200)"`
	Address string `gorm:"type:text"`
	Active  bool   `gorm:"not null;default:true"`

	BillCount      int        `gorm:"not null;default:0"`
	LastPurchaseAt *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer (walk-in customers are created at billing time)
func NewCustomer(name, phone, email, address string) (*Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if phone == "" {
		return nil, shared.NewDomainError("INVALID_PHONE", "Customer phone cannot be empty")
	}

	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Phone:      phone,
		Email:      email,
		Address:    address,
		Active:     true,
	}, nil
}

// RecordPurchase appends a committed bill to the customer's purchase stats
func (c *Customer) RecordPurchase(at time.Time) {
	c.BillCount++
	c.LastPurchaseAt = &at
	c.UpdatedAt = time.Now()
}
