package member

import (
	"context"

	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/google/uuid"
)

// Repository defines the persistence contract for members.
type Repository interface {
	Save(ctx context.Context, m *Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	ListActive(ctx context.Context) ([]*Member, error)
}

// ApplicationRepository defines the persistence contract for membership
// applications.
type ApplicationRepository interface {
	Save(ctx context.Context, a *MembershipApplication) error
	Update(ctx context.Context, a *MembershipApplication) error
	FindByID(ctx context.Context, id uuid.UUID) (*MembershipApplication, error)
	ListByStatus(ctx context.Context, status ApplicationStatus, page, limit int) ([]*MembershipApplication, int64, error)
}

// RegistrationRepository defines the persistence contract for member
// registrations (store B). MarkPaidByOrderNo carries the same conditional
// update semantics as the general registration store.
type RegistrationRepository interface {
	Save(ctx context.Context, reg *Registration) error
	Update(ctx context.Context, reg *Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*Registration, error)
	MarkPaidByOrderNo(ctx context.Context, orderNo string, upd payment.Update) (int64, error)
	RevenueStats(ctx context.Context) (int64, map[string]int64, error)
}
