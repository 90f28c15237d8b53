package handler

import (
	"strconv"
	"time"

	"github.com/assocdesk/service-registration/internal/application"
	"github.com/assocdesk/service-registration/internal/domain/registration"
	"github.com/assocdesk/service-registration/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pagination reads page/limit query parameters with sane bounds.
func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// RegistrationHandler serves public checkout and the admin registration
// operations.
type RegistrationHandler struct {
	checkout      *application.CheckoutService
	registrations *application.RegistrationService
}

// NewRegistrationHandler creates the registration handler.
func NewRegistrationHandler(checkout *application.CheckoutService, registrations *application.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{checkout: checkout, registrations: registrations}
}

type registerRequest struct {
	ActivityID uuid.UUID `json:"activity_id" binding:"required"`
	Name       string    `json:"name" binding:"required"`
	Email      string    `json:"email" binding:"required,email"`
	Phone      string    `json:"phone"`
	CouponCode string    `json:"coupon_code"`
}

// Register serves POST /registrations.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	result, err := h.checkout.Register(c.Request.Context(), application.RegisterInput{
		ActivityID: req.ActivityID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// RegisterMember serves POST /members/:id/registrations.
func (h *RegistrationHandler) RegisterMember(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var req struct {
		ActivityID uuid.UUID `json:"activity_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	result, err := h.checkout.RegisterMember(c.Request.Context(), memberID, req.ActivityID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

type registrationResponse struct {
	ID              uuid.UUID  `json:"id"`
	ActivityID      uuid.UUID  `json:"activity_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	CouponCode      string     `json:"coupon_code,omitempty"`
	AmountDue       int64      `json:"amount_due"`
	PaymentStatus   string     `json:"payment_status"`
	PaidAmount      int64      `json:"paid_amount"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	MerchantOrderNo string     `json:"merchant_order_no"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toRegistrationResponse(r *registration.Registration) registrationResponse {
	return registrationResponse{
		ID:              r.ID(),
		ActivityID:      r.ActivityID(),
		Name:            r.Name(),
		Email:           r.Email(),
		Phone:           r.Phone(),
		CouponCode:      r.CouponCode(),
		AmountDue:       r.AmountDue(),
		PaymentStatus:   string(r.PaymentStatus()),
		PaidAmount:      r.PaidAmount(),
		PaidAt:          r.PaidAt(),
		MerchantOrderNo: r.MerchantOrderNo(),
		PaymentMethod:   r.PaymentMethod(),
		CheckedInAt:     r.CheckedInAt(),
		CreatedAt:       r.CreatedAt(),
	}
}

// ListByActivity serves GET /admin/activities/:id/registrations.
func (h *RegistrationHandler) ListByActivity(c *gin.Context) {
	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	page, limit := pagination(c)
	regs, total, err := h.registrations.ListByActivity(c.Request.Context(), activityID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]registrationResponse, len(regs))
	for i, r := range regs {
		out[i] = toRegistrationResponse(r)
	}
	response.Paginated(c, out, page, limit, total)
}

// Refund serves POST /admin/registrations/:id/refund.
func (h *RegistrationHandler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	if err := h.registrations.Refund(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"registration_id": id, "status": "refunded"})
}

// CheckIn serves POST /admin/registrations/:id/checkin.
func (h *RegistrationHandler) CheckIn(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	result, err := h.registrations.CheckIn(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RevenueReport serves GET /admin/stats/revenue.
func (h *RegistrationHandler) RevenueReport(c *gin.Context) {
	report, err := h.registrations.RevenueReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}
