package member

import (
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/google/uuid"
)

// Member is an approved association member listed in the public directory.
type Member struct {
	ID       uuid.UUID
	Company  string
	Contact  string
	Email    string
	Phone    string
	Active   bool
	JoinedAt time.Time
}

// ApplicationStatus is the state of a membership application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// MembershipApplication is a request to join the association, decided by an
// admin.
type MembershipApplication struct {
	ID        uuid.UUID
	Company   string
	Contact   string
	Email     string
	Phone     string
	Status    ApplicationStatus
	Note      string
	DecidedBy *uuid.UUID
	DecidedAt *time.Time
	CreatedAt time.Time
}

// NewApplication creates a pending membership application.
func NewApplication(company, contact, email, phone string) (*MembershipApplication, error) {
	if company == "" || contact == "" || email == "" {
		return nil, domain.NewValidationError("company, contact and email are required")
	}
	return &MembershipApplication{
		ID:        uuid.New(),
		Company:   company,
		Contact:   contact,
		Email:     email,
		Phone:     phone,
		Status:    ApplicationPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Approve decides the application and returns the resulting member record.
func (a *MembershipApplication) Approve(decidedBy uuid.UUID) (*Member, error) {
	if a.Status != ApplicationPending {
		return nil, domain.NewInvalidStateError(string(a.Status), string(ApplicationApproved))
	}
	now := time.Now().UTC()
	a.Status = ApplicationApproved
	a.DecidedBy = &decidedBy
	a.DecidedAt = &now

	return &Member{
		ID:       uuid.New(),
		Company:  a.Company,
		Contact:  a.Contact,
		Email:    a.Email,
		Phone:    a.Phone,
		Active:   true,
		JoinedAt: now,
	}, nil
}

// Reject decides the application negatively, keeping the reviewer's note.
func (a *MembershipApplication) Reject(decidedBy uuid.UUID, note string) error {
	if a.Status != ApplicationPending {
		return domain.NewInvalidStateError(string(a.Status), string(ApplicationRejected))
	}
	now := time.Now().UTC()
	a.Status = ApplicationRejected
	a.Note = note
	a.DecidedBy = &decidedBy
	a.DecidedAt = &now
	return nil
}
