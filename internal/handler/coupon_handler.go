package handler

import (
	"net/http"
	"time"

	"github.com/assocdesk/service-registration/internal/application"
	"github.com/assocdesk/service-registration/internal/domain/coupon"
	"github.com/assocdesk/service-registration/internal/middleware"
	"github.com/assocdesk/service-registration/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CouponHandler serves the admin coupon endpoints.
type CouponHandler struct {
	coupons *application.CouponService
}

// NewCouponHandler creates the coupon handler.
func NewCouponHandler(coupons *application.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

type couponRequest struct {
	Code       string    `json:"code" binding:"required"`
	Discount   int64     `json:"discount" binding:"required"`
	MaxUses    int       `json:"max_uses"`
	ValidFrom  time.Time `json:"valid_from" binding:"required"`
	ValidUntil time.Time `json:"valid_until" binding:"required"`
}

type couponResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Discount    int64     `json:"discount"`
	MaxUses     int       `json:"max_uses"`
	CurrentUses int       `json:"current_uses"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidUntil  time.Time `json:"valid_until"`
}

func toCouponResponse(cpn *coupon.Coupon) couponResponse {
	return couponResponse{
		ID:          cpn.ID(),
		Code:        cpn.Code(),
		Discount:    cpn.Discount(),
		MaxUses:     cpn.MaxUses(),
		CurrentUses: cpn.CurrentUses(),
		ValidFrom:   cpn.ValidFrom(),
		ValidUntil:  cpn.ValidUntil(),
	}
}

// Create serves POST /admin/coupons.
func (h *CouponHandler) Create(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return
	}
	cpn, err := h.coupons.Create(c.Request.Context(), application.CouponInput{
		Code:       req.Code,
		Discount:   req.Discount,
		MaxUses:    req.MaxUses,
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
	}, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toCouponResponse(cpn))
}

// ListActive serves GET /admin/coupons.
func (h *CouponHandler) ListActive(c *gin.Context) {
	coupons, err := h.coupons.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]couponResponse, len(coupons))
	for i, cpn := range coupons {
		out[i] = toCouponResponse(cpn)
	}
	response.Success(c, out)
}
