package billing

import (
	"time"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingItemRequest is one requested purchase line
type BillingItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" binding:"required"`
}

// CreateBillRequest is the billing surface accepted by the coordinator.
// Either CustomerID or the new-customer fields (name + phone) must be set.
type CreateBillRequest struct {
	CustomerID      *uuid.UUID           `json:"customer_id"`
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerEmail   string               `json:"customer_email"`
	CustomerAddress string               `json:"customer_address"`
	Items           []BillingItemRequest `json:"items" binding:"required"`
	PaymentType     string               `json:"payment_type"`
	CouponCode      string               `json:"coupon_code"`
	OrderID         *uuid.UUID           `json:"order_id"`
}

// BillItemResponse is one invoice line in API responses
type BillItemResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	VariantID    *uuid.UUID      `json:"variant_id,omitempty"`
	Name         string          `json:"name"`
	VariantLabel string          `json:"variant_label,omitempty"`
	Category     string          `json:"category,omitempty"`
	HSNCode      string          `json:"hsn_code,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	GSTRate      decimal.Decimal `json:"gst_rate"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
	LineGST      decimal.Decimal `json:"line_gst"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

// BillResponse represents a committed bill in API responses
type BillResponse struct {
	ID            uuid.UUID                  `json:"id"`
	InvoiceNumber string                     `json:"invoice_number"`
	CustomerID    uuid.UUID                  `json:"customer_id"`
	CustomerName  string                     `json:"customer_name"`
	CustomerPhone string                     `json:"customer_phone"`
	Items         []BillItemResponse         `json:"items"`
	Subtotal      decimal.Decimal            `json:"subtotal"`
	GSTTotal      decimal.Decimal            `json:"gst_total"`
	GrandTotal    decimal.Decimal            `json:"grand_total"`
	Discount      decimal.Decimal            `json:"discount"`
	Payable       decimal.Decimal            `json:"payable"`
	CouponCode    string                     `json:"coupon_code,omitempty"`
	GSTBreakdown  map[string]decimal.Decimal `json:"gst_breakdown"`
	PaymentType   string                     `json:"payment_type"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// ToBillResponse converts a bill to its API representation
func ToBillResponse(bill *billing.Bill) BillResponse {
	items := make([]BillItemResponse, len(bill.Items))
	for i, item := range bill.Items {
		items[i] = BillItemResponse{
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			Name:         item.Name,
			VariantLabel: item.VariantLabel,
			Category:     item.Category,
			HSNCode:      item.HSNCode,
			ImageURL:     item.ImageURL,
			UnitPrice:    item.UnitPrice,
			GSTRate:      item.GSTRate,
			Quantity:     item.Quantity,
			LineSubtotal: item.LineSubtotal,
			LineGST:      item.LineGST,
			LineTotal:    item.LineTotal,
		}
	}
	return BillResponse{
		ID:            bill.ID,
		InvoiceNumber: bill.InvoiceNumber,
		CustomerID:    bill.CustomerID,
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.CustomerPhone,
		Items:         items,
		Subtotal:      bill.Subtotal,
		GSTTotal:      bill.GSTTotal,
		GrandTotal:    bill.GrandTotal,
		Discount:      bill.Discount,
		Payable:       bill.Payable,
		CouponCode:    bill.CouponCode,
		GSTBreakdown:  bill.GSTBreakdown,
		PaymentType:   string(bill.PaymentType),
		CreatedAt:     bill.CreatedAt,
	}
}

// ValidateCouponRequest asks whether a coupon applies to a given total
type ValidateCouponRequest struct {
	Code  string          `json:"code" binding:"required"`
	Total decimal.Decimal `json:"total" binding:"required"`
}

// CouponValidationResponse reports the outcome of coupon validation
type CouponValidationResponse struct {
	Valid    bool            `json:"valid"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Payable  decimal.Decimal `json:"payable"`
}

// CreateCouponRequest creates a new coupon
type CreateCouponRequest struct {
	Code           string          `json:"code" binding:"required"`
	DiscountType   string          `json:"discount_type" binding:"required,oneof=percent flat"`
	Value          decimal.Decimal `json:"value" binding:"required"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	UsageLimit     int             `json:"usage_limit"`
	MaxTotalSales  decimal.Decimal `json:"max_total_sales"`
	PartnerName    string          `json:"partner_name"`
	PartnerPhone   string          `json:"partner_phone"`
}

// UpdateCouponRequest replaces a coupon's terms; usage counters are kept
type UpdateCouponRequest struct {
	DiscountType   string          `json:"discount_type" binding:"required,oneof=percent flat"`
	Value          decimal.Decimal `json:"value" binding:"required"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	UsageLimit     int             `json:"usage_limit"`
	MaxTotalSales  decimal.Decimal `json:"max_total_sales"`
	PartnerName    string          `json:"partner_name"`
	PartnerPhone   string          `json:"partner_phone"`
}

// CouponResponse represents a coupon in API responses
type CouponResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	DiscountType   string          `json:"discount_type"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	UsageLimit     int             `json:"usage_limit"`
	UsedCount      int             `json:"used_count"`
	MaxTotalSales  decimal.Decimal `json:"max_total_sales"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	PartnerName    string          `json:"partner_name,omitempty"`
	PartnerPhone   string          `json:"partner_phone,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToCouponResponse converts a coupon to its API representation
func ToCouponResponse(coupon *billing.Coupon) CouponResponse {
	return CouponResponse{
		ID:             coupon.ID,
		Code:           coupon.Code,
		DiscountType:   string(coupon.DiscountType),
		Value:          coupon.Value,
		MinOrderAmount: coupon.MinOrderAmount,
		ExpiresAt:      coupon.ExpiresAt,
		UsageLimit:     coupon.UsageLimit,
		UsedCount:      coupon.UsedCount,
		MaxTotalSales:  coupon.MaxTotalSales,
		TotalSales:     coupon.TotalSales,
		PartnerName:    coupon.PartnerName,
		PartnerPhone:   coupon.PartnerPhone,
		Active:         coupon.Active,
		CreatedAt:      coupon.CreatedAt,
	}
}

// AdjustStockRequest changes product or variant stock outside of billing
type AdjustStockRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	// Delta is the signed stock change; negative values decrement and are
	// subject to the same conditional-write guard as billing.
	Delta int    `json:"delta" binding:"required"`
	Note  string `json:"note"`
}

// StockAdjustmentResponse reports the stock level after a manual adjustment
type StockAdjustmentResponse struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Before    int        `json:"before"`
	After     int        `json:"after"`
}

// LowStockProduct is one entry in a low-stock report
type LowStockProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
}

// LowStockReport lists products at or below the configured threshold
type LowStockReport struct {
	Threshold int               `json:"threshold"`
	Products  []LowStockProduct `json:"products"`
}
