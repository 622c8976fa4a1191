package handler

import (
	appbilling "github.com/billing/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler handles manual stock operations and reporting
type InventoryHandler struct {
	BaseHandler
	stockService *appbilling.StockService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(stockService *appbilling.StockService) *InventoryHandler {
	return &InventoryHandler{
		stockService: stockService,
	}
}

// Adjust godoc
// @ID           adjustStock
// @Summary      Adjust stock manually
// @Description  Applies a signed stock delta with an audit row; negative deltas are guarded against overselling
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body appbilling.AdjustStockRequest true "Stock adjustment"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req appbilling.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid adjustment request: "+err.Error())
		return
	}

	result, err := h.stockService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// LowStock godoc
// @ID           listLowStock
// @Summary      List products at or below the low-stock threshold
// @Tags         inventory
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *gin.Context) {
	report, err := h.stockService.LowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// History godoc
// @ID           getStockHistory
// @Summary      Get the stock audit trail for a product
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response
// @Router       /inventory/products/{id}/transactions [get]
func (h *InventoryHandler) History(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	history, err := h.stockService.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// RegisterRoutes registers all inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	inventory := rg.Group("/inventory")
	{
		inventory.POST("/adjust", h.Adjust)
		inventory.GET("/low-stock", h.LowStock)
		inventory.GET("/products/:id/transactions", h.History)
	}
}
