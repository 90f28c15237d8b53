package coupon

import (
	"testing"
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWindow() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now.Add(-time.Hour), now.Add(24 * time.Hour)
}

func TestNewCoupon_Validation(t *testing.T) {
	from, until := validWindow()

	_, err := NewCoupon("", 100, 0, from, until, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewCoupon("SPRING", 0, 0, from, until, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewCoupon("SPRING", 100, 0, until, from, uuid.New())
	assert.ErrorIs(t, err, domain.ErrValidation)

	cpn, err := NewCoupon("  spring24 ", 100, 0, from, until, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "SPRING24", cpn.Code(), "codes are normalized to upper case")
}

func TestApply_FloorsAtZero(t *testing.T) {
	from, until := validWindow()
	cpn, err := NewCoupon("BIG", 2000, 0, from, until, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, int64(0), cpn.Apply(1500))
	assert.Equal(t, int64(500), cpn.Apply(2500))
}

func TestRedeem_RespectsMaxUses(t *testing.T) {
	from, until := validWindow()
	cpn, err := NewCoupon("LIMITED", 100, 2, from, until, uuid.New())
	require.NoError(t, err)

	require.NoError(t, cpn.Redeem())
	require.NoError(t, cpn.Redeem())
	assert.False(t, cpn.IsValid())

	err = cpn.Redeem()
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRelease_RestoresUse(t *testing.T) {
	from, until := validWindow()
	cpn, err := NewCoupon("LIMITED", 100, 1, from, until, uuid.New())
	require.NoError(t, err)

	require.NoError(t, cpn.Redeem())
	assert.False(t, cpn.IsValid())

	cpn.Release()
	assert.True(t, cpn.IsValid())
	assert.Zero(t, cpn.CurrentUses())

	// Releasing below zero is a no-op.
	cpn.Release()
	cpn.Release()
	assert.Zero(t, cpn.CurrentUses())
}

func TestIsValid_OutsideWindow(t *testing.T) {
	now := time.Now().UTC()
	future, err := NewCoupon("SOON", 100, 0, now.Add(time.Hour), now.Add(2*time.Hour), uuid.New())
	require.NoError(t, err)
	assert.False(t, future.IsValid())

	expired, err := NewCoupon("GONE", 100, 0, now.Add(-2*time.Hour), now.Add(-time.Hour), uuid.New())
	require.NoError(t, err)
	assert.False(t, expired.IsValid())
}
