package application

import (
	"context"
	"time"

	"github.com/assocdesk/service-registration/internal/domain/coupon"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CouponInput carries the fields for creating a coupon.
type CouponInput struct {
	Code       string
	Discount   int64
	MaxUses    int
	ValidFrom  time.Time
	ValidUntil time.Time
}

// CouponService manages discount codes for the admin surface.
type CouponService struct {
	coupons coupon.Repository
	logger  *zap.Logger
}

// NewCouponService creates the coupon service.
func NewCouponService(coupons coupon.Repository, logger *zap.Logger) *CouponService {
	return &CouponService{coupons: coupons, logger: logger}
}

// Create adds a new coupon.
func (s *CouponService) Create(ctx context.Context, input CouponInput, createdBy uuid.UUID) (*coupon.Coupon, error) {
	cpn, err := coupon.NewCoupon(input.Code, input.Discount, input.MaxUses, input.ValidFrom, input.ValidUntil, createdBy)
	if err != nil {
		return nil, err
	}
	if err := s.coupons.Save(ctx, cpn); err != nil {
		return nil, err
	}
	s.logger.Info("coupon created", zap.String("code", cpn.Code()))
	return cpn, nil
}

// ListActive returns coupons currently redeemable.
func (s *CouponService) ListActive(ctx context.Context) ([]*coupon.Coupon, error) {
	return s.coupons.ListActive(ctx)
}
