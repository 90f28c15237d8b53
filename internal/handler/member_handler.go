package handler

import (
	"net/http"
	"time"

	"github.com/assocdesk/service-registration/internal/application"
	"github.com/assocdesk/service-registration/internal/domain/member"
	"github.com/assocdesk/service-registration/internal/middleware"
	"github.com/assocdesk/service-registration/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MemberHandler serves the public member directory, membership applications
// and the admin decisions on them.
type MemberHandler struct {
	members *application.MemberService
}

// NewMemberHandler creates the member handler.
func NewMemberHandler(members *application.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

type memberResponse struct {
	ID       uuid.UUID `json:"id"`
	Company  string    `json:"company"`
	Contact  string    `json:"contact"`
	JoinedAt time.Time `json:"joined_at"`
}

// Directory serves GET /members. Contact details stay off the public
// listing.
func (h *MemberHandler) Directory(c *gin.Context) {
	members, err := h.members.Directory(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = memberResponse{ID: m.ID, Company: m.Company, Contact: m.Contact, JoinedAt: m.JoinedAt}
	}
	response.Success(c, out)
}

type applicationRequest struct {
	Company string `json:"company" binding:"required"`
	Contact string `json:"contact" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
}

type applicationResponse struct {
	ID        uuid.UUID `json:"id"`
	Company   string    `json:"company"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toApplicationResponse(a *member.MembershipApplication) applicationResponse {
	return applicationResponse{
		ID:        a.ID,
		Company:   a.Company,
		Contact:   a.Contact,
		Email:     a.Email,
		Phone:     a.Phone,
		Status:    string(a.Status),
		Note:      a.Note,
		CreatedAt: a.CreatedAt,
	}
}

// Apply serves POST /membership/applications.
func (h *MemberHandler) Apply(c *gin.Context) {
	var req applicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	app, err := h.members.Apply(c.Request.Context(), application.ApplicationInput{
		Company: req.Company,
		Contact: req.Contact,
		Email:   req.Email,
		Phone:   req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toApplicationResponse(app))
}

// ListApplications serves GET /admin/membership/applications.
func (h *MemberHandler) ListApplications(c *gin.Context) {
	status := member.ApplicationStatus(c.DefaultQuery("status", string(member.ApplicationPending)))
	page, limit := pagination(c)
	apps, total, err := h.members.ListApplications(c.Request.Context(), status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]applicationResponse, len(apps))
	for i, a := range apps {
		out[i] = toApplicationResponse(a)
	}
	response.Paginated(c, out, page, limit, total)
}

// Approve serves POST /admin/membership/applications/:id/approve.
func (h *MemberHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return
	}
	mbr, err := h.members.Approve(c.Request.Context(), id, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"member_id": mbr.ID, "company": mbr.Company})
}

// Reject serves POST /admin/membership/applications/:id/reject.
func (h *MemberHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown caller"})
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "invalid request body")
		return
	}
	app, err := h.members.Reject(c.Request.Context(), id, adminID, req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toApplicationResponse(app))
}
