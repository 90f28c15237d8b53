package coupon

import (
	"strings"
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/google/uuid"
)

// Coupon is the aggregate root for discount codes. Discounts are fixed
// amounts in the gateway's currency unit.
type Coupon struct {
	id          uuid.UUID
	code        string
	discount    int64
	maxUses     int
	currentUses int
	validFrom   time.Time
	validUntil  time.Time
	createdBy   uuid.UUID
	createdAt   time.Time
	updatedAt   time.Time
}

// NewCoupon creates a coupon code. maxUses of zero means unlimited.
func NewCoupon(code string, discount int64, maxUses int, validFrom, validUntil time.Time, createdBy uuid.UUID) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.NewValidationError("coupon code is required")
	}
	if discount <= 0 {
		return nil, domain.NewValidationError("discount must be positive")
	}
	if validUntil.Before(validFrom) {
		return nil, domain.NewValidationError("valid_until must be after valid_from")
	}

	now := time.Now().UTC()
	return &Coupon{
		id:         uuid.New(),
		code:       code,
		discount:   discount,
		maxUses:    maxUses,
		validFrom:  validFrom,
		validUntil: validUntil,
		createdBy:  createdBy,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func (c *Coupon) ID() uuid.UUID         { return c.id }
func (c *Coupon) Code() string          { return c.code }
func (c *Coupon) Discount() int64       { return c.discount }
func (c *Coupon) MaxUses() int          { return c.maxUses }
func (c *Coupon) CurrentUses() int      { return c.currentUses }
func (c *Coupon) ValidFrom() time.Time  { return c.validFrom }
func (c *Coupon) ValidUntil() time.Time { return c.validUntil }
func (c *Coupon) CreatedBy() uuid.UUID  { return c.createdBy }
func (c *Coupon) CreatedAt() time.Time  { return c.createdAt }
func (c *Coupon) UpdatedAt() time.Time  { return c.updatedAt }

// IsValid reports whether the coupon can currently be redeemed.
func (c *Coupon) IsValid() bool {
	now := time.Now().UTC()
	if now.Before(c.validFrom) || now.After(c.validUntil) {
		return false
	}
	return c.maxUses == 0 || c.currentUses < c.maxUses
}

// Apply returns the price after discount, floored at zero.
func (c *Coupon) Apply(amount int64) int64 {
	if c.discount >= amount {
		return 0
	}
	return amount - c.discount
}

// Redeem consumes one use.
func (c *Coupon) Redeem() error {
	if !c.IsValid() {
		return domain.NewConflictError("coupon is no longer valid")
	}
	c.currentUses++
	c.updatedAt = time.Now().UTC()
	return nil
}

// Release returns one use, compensating a failed checkout.
func (c *Coupon) Release() {
	if c.currentUses > 0 {
		c.currentUses--
		c.updatedAt = time.Now().UTC()
	}
}

// Reconstitute rebuilds a Coupon from persistence.
func Reconstitute(id uuid.UUID, code string, discount int64, maxUses, currentUses int, validFrom, validUntil time.Time, createdBy uuid.UUID, createdAt, updatedAt time.Time) *Coupon {
	return &Coupon{
		id: id, code: code, discount: discount,
		maxUses: maxUses, currentUses: currentUses,
		validFrom: validFrom, validUntil: validUntil,
		createdBy: createdBy, createdAt: createdAt, updatedAt: updatedAt,
	}
}
