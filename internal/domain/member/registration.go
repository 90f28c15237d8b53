package member

import (
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/google/uuid"
)

// Registration is a member activity signup. It lives in its own store,
// disjoint from general registrations, but carries the same payment-facing
// fields so the reconciliation engine can treat both stores uniformly.
type Registration struct {
	id              uuid.UUID
	memberID        uuid.UUID
	activityID      uuid.UUID
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

// NewRegistration creates a pending member registration at the member rate.
func NewRegistration(memberID, activityID uuid.UUID, amountDue int64) *Registration {
	now := time.Now().UTC()
	return &Registration{
		id:            uuid.New(),
		memberID:      memberID,
		activityID:    activityID,
		amountDue:     amountDue,
		paymentStatus: payment.StatusPending,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (r *Registration) ID() uuid.UUID                 { return r.id }
func (r *Registration) MemberID() uuid.UUID           { return r.memberID }
func (r *Registration) ActivityID() uuid.UUID         { return r.activityID }
func (r *Registration) AmountDue() int64              { return r.amountDue }
func (r *Registration) PaymentStatus() payment.Status { return r.paymentStatus }
func (r *Registration) PaidAmount() int64             { return r.paidAmount }
func (r *Registration) PaidAt() *time.Time            { return r.paidAt }
func (r *Registration) MerchantOrderNo() string       { return r.merchantOrderNo }
func (r *Registration) PaymentMethod() string         { return r.paymentMethod }
func (r *Registration) CheckedInAt() *time.Time       { return r.checkedInAt }
func (r *Registration) CreatedAt() time.Time          { return r.createdAt }
func (r *Registration) UpdatedAt() time.Time          { return r.updatedAt }

// AssignOrderNo sets the merchant order number once.
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

// Refund marks a paid member registration refunded.
func (r *Registration) Refund() error {
	if r.paymentStatus != payment.StatusPaid {
		return domain.NewInvalidStateError(string(r.paymentStatus), string(payment.StatusRefunded))
	}
	r.paymentStatus = payment.StatusRefunded
	r.updatedAt = time.Now().UTC()
	return nil
}

// CheckIn records event attendance for a paid member registration.
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

// ReconstituteRegistration rebuilds a member Registration from persistence.
func ReconstituteRegistration(
	id, memberID, activityID uuid.UUID,
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
		memberID:        memberID,
		activityID:      activityID,
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
