package registration

import (
	"testing"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingRegistration() *Registration {
	return NewRegistration(uuid.New(), "Jordan Lee", "jordan@example.com", "0912345678", "", 1500)
}

func TestNewRegistration_StartsPending(t *testing.T) {
	reg := newPendingRegistration()

	assert.Equal(t, payment.StatusPending, reg.PaymentStatus())
	assert.Zero(t, reg.PaidAmount())
	assert.Nil(t, reg.PaidAt())
	assert.Empty(t, reg.MerchantOrderNo())
}

func TestAssignOrderNo_OnlyOnce(t *testing.T) {
	reg := newPendingRegistration()

	require.NoError(t, reg.AssignOrderNo("ORD1"))
	assert.Equal(t, "ORD1", reg.MerchantOrderNo())

	err := reg.AssignOrderNo("ORD2")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "ORD1", reg.MerchantOrderNo())
}

func TestMarkFailed_RequiresPending(t *testing.T) {
	reg := newPendingRegistration()
	require.NoError(t, reg.MarkFailed())
	assert.Equal(t, payment.StatusFailed, reg.PaymentStatus())

	err := reg.MarkFailed()
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRefund_RequiresPaid(t *testing.T) {
	reg := newPendingRegistration()

	err := reg.Refund()
	assert.ErrorIs(t, err, domain.ErrInvalidState, "pending registration cannot be refunded")
}

func TestCheckIn_RequiresPaidAndOnlyOnce(t *testing.T) {
	reg := newPendingRegistration()

	err := reg.CheckIn()
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	paid := Reconstitute(
		reg.ID(), reg.ActivityID(),
		reg.Name(), reg.Email(), reg.Phone(), reg.CouponCode(),
		reg.AmountDue(), payment.StatusPaid, reg.AmountDue(),
		nil, "ORD1", "CREDIT", nil,
		reg.CreatedAt(), reg.UpdatedAt(),
	)
	require.NoError(t, paid.CheckIn())
	assert.NotNil(t, paid.CheckedInAt())

	err = paid.CheckIn()
	assert.ErrorIs(t, err, domain.ErrConflict)
}
