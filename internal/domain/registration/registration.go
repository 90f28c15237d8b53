package registration

import (
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/google/uuid"
)

// Registration is the aggregate root for a general (non-member) activity
// signup. Registrant identity fields are owned by the public API; the payment
// fields are the only ones the reconciliation engine may overwrite.
type Registration struct {
	id              uuid.UUID
	activityID      uuid.UUID
	name            string
	email           string
	phone           string
	couponCode      string
	amountDue       int64
	paymentStatus   payment.Status
	paidAmount      int64
	paidAt          *time.Time
	merchantOrderNo string
	paymentMethod   string
	checkedInAt     *time.Time
	createdAt       time.Time
	updatedAt       time.Time
}

// NewRegistration creates a pending registration for an activity.
func NewRegistration(activityID uuid.UUID, name, email, phone, couponCode string, amountDue int64) *Registration {
	now := time.Now().UTC()
	return &Registration{
		id:            uuid.New(),
		activityID:    activityID,
		name:          name,
		email:         email,
		phone:         phone,
		couponCode:    couponCode,
		amountDue:     amountDue,
		paymentStatus: payment.StatusPending,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (r *Registration) ID() uuid.UUID                  { return r.id }
func (r *Registration) ActivityID() uuid.UUID          { return r.activityID }
func (r *Registration) Name() string                   { return r.name }
func (r *Registration) Email() string                  { return r.email }
func (r *Registration) Phone() string                  { return r.phone }
func (r *Registration) CouponCode() string             { return r.couponCode }
func (r *Registration) AmountDue() int64               { return r.amountDue }
func (r *Registration) PaymentStatus() payment.Status  { return r.paymentStatus }
func (r *Registration) PaidAmount() int64              { return r.paidAmount }
func (r *Registration) PaidAt() *time.Time             { return r.paidAt }
func (r *Registration) MerchantOrderNo() string        { return r.merchantOrderNo }
func (r *Registration) PaymentMethod() string          { return r.paymentMethod }
func (r *Registration) CheckedInAt() *time.Time        { return r.checkedInAt }
func (r *Registration) CreatedAt() time.Time           { return r.createdAt }
func (r *Registration) UpdatedAt() time.Time           { return r.updatedAt }

// AssignOrderNo sets the merchant order number when a payment attempt is
// initiated. It may be set only once.
func (r *Registration) AssignOrderNo(orderNo string) error {
	if r.merchantOrderNo != "" {
		return domain.NewConflictError("order number already assigned")
	}
	r.merchantOrderNo = orderNo
	r.updatedAt = time.Now().UTC()
	return nil
}

// MarkFailed records a failed payment attempt.
func (r *Registration) MarkFailed() error {
	if r.paymentStatus != payment.StatusPending {
		return domain.NewInvalidStateError(string(r.paymentStatus), string(payment.StatusFailed))
	}
	r.paymentStatus = payment.StatusFailed
	r.updatedAt = time.Now().UTC()
	return nil
}

// Refund marks a paid registration refunded. The money movement itself
// happens out of band.
func (r *Registration) Refund() error {
	if r.paymentStatus != payment.StatusPaid {
		return domain.NewInvalidStateError(string(r.paymentStatus), string(payment.StatusRefunded))
	}
	r.paymentStatus = payment.StatusRefunded
	r.updatedAt = time.Now().UTC()
	return nil
}

// CheckIn records event attendance. Only paid registrations can check in,
// and only once.
func (r *Registration) CheckIn() error {
	if r.paymentStatus != payment.StatusPaid {
		return domain.NewInvalidStateError(string(r.paymentStatus), "checked_in")
	}
	if r.checkedInAt != nil {
		return domain.NewConflictError("registration already checked in")
	}
	now := time.Now().UTC()
	r.checkedInAt = &now
	r.updatedAt = now
	return nil
}

// Reconstitute rebuilds a Registration from persistence.
func Reconstitute(
	id, activityID uuid.UUID,
	name, email, phone, couponCode string,
	amountDue int64,
	paymentStatus payment.Status,
	paidAmount int64,
	paidAt *time.Time,
	merchantOrderNo, paymentMethod string,
	checkedInAt *time.Time,
	createdAt, updatedAt time.Time,
) *Registration {
	return &Registration{
		id:              id,
		activityID:      activityID,
		name:            name,
		email:           email,
		phone:           phone,
		couponCode:      couponCode,
		amountDue:       amountDue,
		paymentStatus:   paymentStatus,
		paidAmount:      paidAmount,
		paidAt:          paidAt,
		merchantOrderNo: merchantOrderNo,
		paymentMethod:   paymentMethod,
		checkedInAt:     checkedInAt,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}
