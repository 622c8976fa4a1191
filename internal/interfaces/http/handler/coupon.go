package handler

import (
	appbilling "github.com/billing/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CouponHandler handles coupon management API endpoints
type CouponHandler struct {
	BaseHandler
	couponService *appbilling.CouponService
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponService *appbilling.CouponService) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
	}
}

// Create godoc
// @ID           createCoupon
// @Summary      Create a coupon
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        request body appbilling.CreateCouponRequest true "Coupon definition"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	var req appbilling.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid coupon request: "+err.Error())
		return
	}

	coupon, err := h.couponService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, coupon)
}

// List godoc
// @ID           listCoupons
// @Summary      List coupons
// @Tags         coupons
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	page, err := h.couponService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getCouponById
// @Summary      Get coupon by ID
// @Tags         coupons
// @Produce      json
// @Param        id path string true "Coupon ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /coupons/{id} [get]
func (h *CouponHandler) GetByID(c *gin.Context) {
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid coupon ID format")
		return
	}

	coupon, err := h.couponService.Get(c.Request.Context(), couponID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Update godoc
// @ID           updateCoupon
// @Summary      Update a coupon's terms
// @Description  Replaces discount terms and caps; usage counters are preserved
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        id path string true "Coupon ID" format(uuid)
// @Param        request body appbilling.UpdateCouponRequest true "New coupon terms"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /coupons/{id} [put]
func (h *CouponHandler) Update(c *gin.Context) {
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid coupon ID format")
		return
	}

	var req appbilling.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid coupon request: "+err.Error())
		return
	}

	coupon, err := h.couponService.Update(c.Request.Context(), couponID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Delete godoc
// @ID           deleteCoupon
// @Summary      Delete a coupon
// @Description  An active coupon is disabled on the first call; a second call removes it
// @Tags         coupons
// @Produce      json
// @Param        id path string true "Coupon ID" format(uuid)
// @Success      200 {object} dto.Response
// @Success      204 "Coupon removed"
// @Failure      404 {object} dto.Response
// @Router       /coupons/{id} [delete]
func (h *CouponHandler) Delete(c *gin.Context) {
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid coupon ID format")
		return
	}

	disabled, deleted, err := h.couponService.Remove(c.Request.Context(), couponID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if deleted {
		h.NoContent(c)
		return
	}

	h.Success(c, disabled)
}

// Enable godoc
// @ID           enableCoupon
// @Summary      Re-enable a disabled coupon
// @Tags         coupons
// @Produce      json
// @Param        id path string true "Coupon ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /coupons/{id}/enable [post]
func (h *CouponHandler) Enable(c *gin.Context) {
	couponID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid coupon ID format")
		return
	}

	coupon, err := h.couponService.Enable(c.Request.Context(), couponID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, coupon)
}

// Validate godoc
// @ID           validateCoupon
// @Summary      Validate a coupon against an order total
// @Description  Read-only check; reports the discount without consuming a use
// @Tags         coupons
// @Accept       json
// @Produce      json
// @Param        request body appbilling.ValidateCouponRequest true "Code and order total"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /coupons/validate [post]
func (h *CouponHandler) Validate(c *gin.Context) {
	var req appbilling.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid validation request: "+err.Error())
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers all coupon routes
func (h *CouponHandler) RegisterRoutes(rg *gin.RouterGroup) {
	coupons := rg.Group("/coupons")
	{
		coupons.POST("", h.Create)
		coupons.GET("", h.List)
		coupons.POST("/validate", h.Validate)
		coupons.GET("/:id", h.GetByID)
		coupons.PUT("/:id", h.Update)
		coupons.DELETE("/:id", h.Delete)
		coupons.POST("/:id/enable", h.Enable)
	}
}
