package repository

import (
	"context"
	"errors"
	"time"

	couponDomain "github.com/assocdesk/service-registration/internal/domain/coupon"
	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponModel is the GORM model for the coupons table.
type CouponModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Code        string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Discount    int64     `gorm:"not null"`
	MaxUses     int       `gorm:"not null;default:0"`
	CurrentUses int       `gorm:"not null;default:0"`
	ValidFrom   time.Time `gorm:"type:timestamptz;not null"`
	ValidUntil  time.Time `gorm:"type:timestamptz;not null"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (CouponModel) TableName() string { return "coupons" }

// GormCouponRepository implements the coupon repository.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository creates a new GormCouponRepository.
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// Save persists a new coupon.
func (r *GormCouponRepository) Save(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists coupon usage changes.
func (r *GormCouponRepository) Update(ctx context.Context, c *couponDomain.Coupon) error {
	model := toCouponModel(c)
	result := r.db.WithContext(ctx).
		Model(&CouponModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"current_uses": model.CurrentUses,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("coupon", model.ID.String())
	}
	return nil
}

// FindByID returns a coupon by ID.
func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*couponDomain.Coupon, error) {
	var model CouponModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("coupon", id.String())
		}
		return nil, err
	}
	return toCouponDomain(&model), nil
}

// FindByCode returns a coupon by its code string.
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*couponDomain.Coupon, error) {
	var model CouponModel
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("coupon", code)
		}
		return nil, err
	}
	return toCouponDomain(&model), nil
}

// ListActive returns coupons inside their validity window with uses left.
func (r *GormCouponRepository) ListActive(ctx context.Context) ([]*couponDomain.Coupon, error) {
	var models []CouponModel
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).
		Where("valid_from <= ? AND valid_until >= ?", now, now).
		Where("max_uses = 0 OR current_uses < max_uses").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*couponDomain.Coupon, len(models))
	for i := range models {
		out[i] = toCouponDomain(&models[i])
	}
	return out, nil
}

func toCouponModel(c *couponDomain.Coupon) *CouponModel {
	return &CouponModel{
		ID: c.ID(), Code: c.Code(), Discount: c.Discount(),
		MaxUses: c.MaxUses(), CurrentUses: c.CurrentUses(),
		ValidFrom: c.ValidFrom(), ValidUntil: c.ValidUntil(),
		CreatedBy: c.CreatedBy(), CreatedAt: c.CreatedAt(), UpdatedAt: c.UpdatedAt(),
	}
}

func toCouponDomain(m *CouponModel) *couponDomain.Coupon {
	return couponDomain.Reconstitute(
		m.ID, m.Code, m.Discount,
		m.MaxUses, m.CurrentUses,
		m.ValidFrom, m.ValidUntil,
		m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
}
