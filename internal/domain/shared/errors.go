package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrProductNotFound   = NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrCustomerNotFound  = NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	ErrInvalidQuantity   = NewDomainError("INVALID_QUANTITY", "Quantity must be a positive integer")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInvalidCoupon     = NewDomainError("INVALID_COUPON", "Coupon is not valid for this order")
)
