package handler

import (
	"time"

	"github.com/assocdesk/service-registration/internal/application"
	"github.com/assocdesk/service-registration/internal/domain/activity"
	"github.com/assocdesk/service-registration/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActivityHandler serves the public activity listing and the admin CRUD.
type ActivityHandler struct {
	activities *application.ActivityService
}

// NewActivityHandler creates the activity handler.
func NewActivityHandler(activities *application.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

type activityRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
	Capacity    int       `json:"capacity" binding:"required"`
	Price       int64     `json:"price"`
	MemberPrice int64     `json:"member_price"`
}

type activityResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
	Price       int64     `json:"price"`
	MemberPrice int64     `json:"member_price"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
}

func toActivityResponse(a *activity.Activity) activityResponse {
	return activityResponse{
		ID:          a.ID(),
		Title:       a.Title(),
		Description: a.Description(),
		Venue:       a.Venue(),
		StartsAt:    a.StartsAt(),
		EndsAt:      a.EndsAt(),
		Capacity:    a.Capacity(),
		Price:       a.Price(),
		MemberPrice: a.MemberPrice(),
		Published:   a.Published(),
		CreatedAt:   a.CreatedAt(),
	}
}

// ListPublished serves GET /activities.
func (h *ActivityHandler) ListPublished(c *gin.Context) {
	acts, err := h.activities.ListPublished(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]activityResponse, len(acts))
	for i, a := range acts {
		out[i] = toActivityResponse(a)
	}
	response.Success(c, out)
}

// Get serves GET /activities/:id.
func (h *ActivityHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	act, err := h.activities.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toActivityResponse(act))
}

// ListAll serves GET /admin/activities.
func (h *ActivityHandler) ListAll(c *gin.Context) {
	page, limit := pagination(c)
	acts, total, err := h.activities.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]activityResponse, len(acts))
	for i, a := range acts {
		out[i] = toActivityResponse(a)
	}
	response.Paginated(c, out, page, limit, total)
}

// Create serves POST /admin/activities.
func (h *ActivityHandler) Create(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	act, err := h.activities.Create(c.Request.Context(), application.ActivityInput{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		Price:       req.Price,
		MemberPrice: req.MemberPrice,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toActivityResponse(act))
}

// Update serves PUT /admin/activities/:id.
func (h *ActivityHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	act, err := h.activities.Update(c.Request.Context(), id, application.ActivityInput{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		Price:       req.Price,
		MemberPrice: req.MemberPrice,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toActivityResponse(act))
}

// SetPublished serves PATCH /admin/activities/:id/published.
func (h *ActivityHandler) SetPublished(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid activity id")
		return
	}
	var req struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	act, err := h.activities.SetPublished(c.Request.Context(), id, *req.Published)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toActivityResponse(act))
}
