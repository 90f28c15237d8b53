package repository

import (
	"context"
	"errors"
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/assocdesk/service-registration/internal/domain/payment"
	regDomain "github.com/assocdesk/service-registration/internal/domain/registration"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationModel is the GORM persistence model for the registrations
// table (general, non-member signups).
type RegistrationModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ActivityID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name            string     `gorm:"type:varchar(100);not null"`
	Email           string     `gorm:"type:varchar(255);not null"`
	Phone           string     `gorm:"type:varchar(30)"`
	CouponCode      string     `gorm:"type:varchar(50)"`
	AmountDue       int64      `gorm:"not null"`
	PaymentStatus   string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAmount      int64      `gorm:"not null;default:0"`
	PaidAt          *time.Time `gorm:"type:timestamptz"`
	MerchantOrderNo string     `gorm:"type:varchar(30);uniqueIndex"`
	PaymentMethod   string     `gorm:"type:varchar(50)"`
	CheckedInAt     *time.Time `gorm:"type:timestamptz"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt       time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM.
func (RegistrationModel) TableName() string {
	return string(payment.StoreGeneral)
}

// GormRegistrationRepository is the GORM-based implementation of the general
// registration repository.
type GormRegistrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new GORM-based registration repository.
func NewRegistrationRepository(db *gorm.DB) *GormRegistrationRepository {
	return &GormRegistrationRepository{db: db}
}

// Save persists a new registration.
func (r *GormRegistrationRepository) Save(ctx context.Context, reg *regDomain.Registration) error {
	model := toRegistrationModel(reg)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing registration.
func (r *GormRegistrationRepository) Update(ctx context.Context, reg *regDomain.Registration) error {
	model := toRegistrationModel(reg)
	result := r.db.WithContext(ctx).
		Model(&RegistrationModel{}).
		Where("id = ?", model.ID).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("registration", model.ID.String())
	}
	return nil
}

// FindByID retrieves a registration by its unique ID.
func (r *GormRegistrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*regDomain.Registration, error) {
	var model RegistrationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("registration", id.String())
		}
		return nil, err
	}
	return toRegistrationDomain(&model), nil
}

// FindByOrderNo retrieves a registration by its merchant order number.
func (r *GormRegistrationRepository) FindByOrderNo(ctx context.Context, orderNo string) (*regDomain.Registration, error) {
	var model RegistrationModel
	if err := r.db.WithContext(ctx).Where("merchant_order_no = ?", orderNo).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("registration", orderNo)
		}
		return nil, err
	}
	return toRegistrationDomain(&model), nil
}

// ListByActivity retrieves registrations for one activity with pagination.
func (r *GormRegistrationRepository) ListByActivity(ctx context.Context, activityID uuid.UUID, page, limit int) ([]*regDomain.Registration, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&RegistrationModel{}).
		Where("activity_id = ?", activityID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []RegistrationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	regs := make([]*regDomain.Registration, len(models))
	for i := range models {
		regs[i] = toRegistrationDomain(&models[i])
	}
	return regs, total, nil
}

// CountByActivity counts registrations that still occupy a seat.
func (r *GormRegistrationRepository) CountByActivity(ctx context.Context, activityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&RegistrationModel{}).
		Where("activity_id = ? AND payment_status IN ?", activityID,
			[]string{string(payment.StatusPending), string(payment.StatusPaid)}).
		Count(&count).Error
	return count, err
}

// MarkPaidByOrderNo applies the payment overwrite to rows matching the
// merchant order number. Refunded rows are never re-marked paid. Zero
// affected rows is not an error.
func (r *GormRegistrationRepository) MarkPaidByOrderNo(ctx context.Context, orderNo string, upd payment.Update) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&RegistrationModel{}).
		Where("merchant_order_no = ? AND payment_status <> ?", orderNo, string(payment.StatusRefunded)).
		Updates(map[string]any{
			"payment_status":    string(payment.StatusPaid),
			"paid_amount":       upd.PaidAmount,
			"paid_at":           upd.PaidAt,
			"merchant_order_no": upd.MerchantOrderNo,
			"payment_method":    upd.Method,
			"updated_at":        time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// RevenueStats returns total paid revenue and row counts by payment status.
func (r *GormRegistrationRepository) RevenueStats(ctx context.Context) (int64, map[string]int64, error) {
	var totalRevenue int64
	if err := r.db.WithContext(ctx).Model(&RegistrationModel{}).
		Where("payment_status = ?", string(payment.StatusPaid)).
		Select("COALESCE(SUM(paid_amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return 0, nil, err
	}

	type statusCount struct {
		PaymentStatus string
		Count         int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&RegistrationModel{}).
		Select("payment_status, count(*) as count").
		Group("payment_status").
		Find(&results).Error; err != nil {
		return 0, nil, err
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.PaymentStatus] = sc.Count
	}
	return totalRevenue, counts, nil
}

func toRegistrationDomain(model *RegistrationModel) *regDomain.Registration {
	return regDomain.Reconstitute(
		model.ID,
		model.ActivityID,
		model.Name,
		model.Email,
		model.Phone,
		model.CouponCode,
		model.AmountDue,
		payment.Status(model.PaymentStatus),
		model.PaidAmount,
		model.PaidAt,
		model.MerchantOrderNo,
		model.PaymentMethod,
		model.CheckedInAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func toRegistrationModel(reg *regDomain.Registration) *RegistrationModel {
	return &RegistrationModel{
		ID:              reg.ID(),
		ActivityID:      reg.ActivityID(),
		Name:            reg.Name(),
		Email:           reg.Email(),
		Phone:           reg.Phone(),
		CouponCode:      reg.CouponCode(),
		AmountDue:       reg.AmountDue(),
		PaymentStatus:   string(reg.PaymentStatus()),
		PaidAmount:      reg.PaidAmount(),
		PaidAt:          reg.PaidAt(),
		MerchantOrderNo: reg.MerchantOrderNo(),
		PaymentMethod:   reg.PaymentMethod(),
		CheckedInAt:     reg.CheckedInAt(),
		CreatedAt:       reg.CreatedAt(),
		UpdatedAt:       reg.UpdatedAt(),
	}
}
