package handler

import (
	appbilling "github.com/billing/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client-chosen retry key for bill creation
const IdempotencyKeyHeader = "Idempotency-Key"

// BillingHandler handles billing API endpoints
type BillingHandler struct {
	BaseHandler
	billingService *appbilling.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *appbilling.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// Create godoc
// @ID           createBill
// @Summary      Create a bill
// @Description  Prices the requested lines, applies an optional coupon, decrements stock and commits the invoice atomically
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Retry key; a repeated key returns the already-committed bill"
// @Param        request body appbilling.CreateBillRequest true "Billing request"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /bills [post]
func (h *BillingHandler) Create(c *gin.Context) {
	var req appbilling.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid billing request: "+err.Error())
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	bill, err := h.billingService.CreateBill(c.Request.Context(), req, idempotencyKey)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, bill)
}

// List godoc
// @ID           listBills
// @Summary      List bills
// @Tags         billing
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response
// @Router       /bills [get]
func (h *BillingHandler) List(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	page, err := h.billingService.ListBills(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getBillById
// @Summary      Get bill by ID
// @Tags         billing
// @Produce      json
// @Param        id path string true "Bill ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /bills/{id} [get]
func (h *BillingHandler) GetByID(c *gin.Context) {
	billID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid bill ID format")
		return
	}

	bill, err := h.billingService.GetBill(c.Request.Context(), billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// GetByInvoiceNumber godoc
// @ID           getBillByInvoiceNumber
// @Summary      Get bill by invoice number
// @Tags         billing
// @Produce      json
// @Param        number path string true "Invoice number"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /bills/invoice/{number} [get]
func (h *BillingHandler) GetByInvoiceNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	bill, err := h.billingService.GetBillByInvoiceNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, bill)
}

// ListCustomerBills godoc
// @ID           listCustomerBills
// @Summary      List a customer's bills
// @Tags         billing
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response
// @Router       /customers/{id}/bills [get]
func (h *BillingHandler) ListCustomerBills(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	page, err := h.billingService.ListCustomerBills(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RegisterRoutes registers all billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bills := rg.Group("/bills")
	{
		bills.POST("", h.Create)
		bills.GET("", h.List)
		bills.GET("/:id", h.GetByID)
		bills.GET("/invoice/:number", h.GetByInvoiceNumber)
	}
	rg.GET("/customers/:id/bills", h.ListCustomerBills)
}
