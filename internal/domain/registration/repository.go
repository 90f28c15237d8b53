package registration

import (
	"context"

	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/google/uuid"
)

// Repository defines the persistence contract for general registrations.
type Repository interface {
	Save(ctx context.Context, reg *Registration) error
	Update(ctx context.Context, reg *Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*Registration, error)
	FindByOrderNo(ctx context.Context, orderNo string) (*Registration, error)
	ListByActivity(ctx context.Context, activityID uuid.UUID, page, limit int) ([]*Registration, int64, error)
	CountByActivity(ctx context.Context, activityID uuid.UUID) (int64, error)

	// MarkPaidByOrderNo applies the payment overwrite to every row whose
	// merchant order number matches and whose status is not refunded. Zero
	// matched rows is not an error; the affected count is returned so the
	// caller can detect match/no-match without a prior read.
	MarkPaidByOrderNo(ctx context.Context, orderNo string, upd payment.Update) (int64, error)

	// RevenueStats returns total paid revenue and row counts by payment status.
	RevenueStats(ctx context.Context) (int64, map[string]int64, error)
}
