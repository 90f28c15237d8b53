package repository

import (
	"context"
	"errors"
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	memberDomain "github.com/assocdesk/service-registration/internal/domain/member"
	"github.com/assocdesk/service-registration/internal/domain/payment"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberModel is the GORM model for the members directory.
type MemberModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Company  string    `gorm:"type:varchar(200);not null"`
	Contact  string    `gorm:"type:varchar(100);not null"`
	Email    string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone    string    `gorm:"type:varchar(30)"`
	Active   bool      `gorm:"not null;default:true"`
	JoinedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (MemberModel) TableName() string { return "members" }

// ApplicationModel is the GORM model for membership applications.
type ApplicationModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Company   string     `gorm:"type:varchar(200);not null"`
	Contact   string     `gorm:"type:varchar(100);not null"`
	Email     string     `gorm:"type:varchar(255);not null"`
	Phone     string     `gorm:"type:varchar(30)"`
	Status    string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	Note      string     `gorm:"type:text"`
	DecidedBy *uuid.UUID `gorm:"type:uuid"`
	DecidedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (ApplicationModel) TableName() string { return "membership_applications" }

// MemberRegistrationModel is the GORM model for member registrations
// (store B). Its payment-facing columns mirror the general registrations
// table so the webhook can apply the same conditional update to either.
type MemberRegistrationModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MemberID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActivityID      uuid.UUID  `gorm:"type:uuid;not null;index"`
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

// TableName sets the table name.
func (MemberRegistrationModel) TableName() string {
	return string(payment.StoreMember)
}

// GormMemberRepository implements the member directory repository.
type GormMemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new GormMemberRepository.
func NewMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

// Save persists a new member.
func (r *GormMemberRepository) Save(ctx context.Context, m *memberDomain.Member) error {
	model := MemberModel{
		ID: m.ID, Company: m.Company, Contact: m.Contact,
		Email: m.Email, Phone: m.Phone, Active: m.Active, JoinedAt: m.JoinedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID returns a member by ID.
func (r *GormMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*memberDomain.Member, error) {
	var model MemberModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("member", id.String())
		}
		return nil, err
	}
	return toMemberDomain(&model), nil
}

// ListActive returns all active members for the public directory.
func (r *GormMemberRepository) ListActive(ctx context.Context) ([]*memberDomain.Member, error) {
	var models []MemberModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("company").Find(&models).Error; err != nil {
		return nil, err
	}
	members := make([]*memberDomain.Member, len(models))
	for i := range models {
		members[i] = toMemberDomain(&models[i])
	}
	return members, nil
}

func toMemberDomain(m *MemberModel) *memberDomain.Member {
	return &memberDomain.Member{
		ID: m.ID, Company: m.Company, Contact: m.Contact,
		Email: m.Email, Phone: m.Phone, Active: m.Active, JoinedAt: m.JoinedAt,
	}
}

// GormApplicationRepository implements the membership application repository.
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new GormApplicationRepository.
func NewApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// Save persists a new application.
func (r *GormApplicationRepository) Save(ctx context.Context, a *memberDomain.MembershipApplication) error {
	model := toApplicationModel(a)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists an application decision.
func (r *GormApplicationRepository) Update(ctx context.Context, a *memberDomain.MembershipApplication) error {
	model := toApplicationModel(a)
	result := r.db.WithContext(ctx).
		Model(&ApplicationModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":     model.Status,
			"note":       model.Note,
			"decided_by": model.DecidedBy,
			"decided_at": model.DecidedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("application", model.ID.String())
	}
	return nil
}

// FindByID returns an application by ID.
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*memberDomain.MembershipApplication, error) {
	var model ApplicationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("application", id.String())
		}
		return nil, err
	}
	return toApplicationDomain(&model), nil
}

// ListByStatus returns applications in a given status with pagination.
func (r *GormApplicationRepository) ListByStatus(ctx context.Context, status memberDomain.ApplicationStatus, page, limit int) ([]*memberDomain.MembershipApplication, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ApplicationModel{}).
		Where("status = ?", string(status)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ApplicationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at").Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	apps := make([]*memberDomain.MembershipApplication, len(models))
	for i := range models {
		apps[i] = toApplicationDomain(&models[i])
	}
	return apps, total, nil
}

func toApplicationModel(a *memberDomain.MembershipApplication) *ApplicationModel {
	return &ApplicationModel{
		ID: a.ID, Company: a.Company, Contact: a.Contact, Email: a.Email, Phone: a.Phone,
		Status: string(a.Status), Note: a.Note,
		DecidedBy: a.DecidedBy, DecidedAt: a.DecidedAt, CreatedAt: a.CreatedAt,
	}
}

func toApplicationDomain(m *ApplicationModel) *memberDomain.MembershipApplication {
	return &memberDomain.MembershipApplication{
		ID: m.ID, Company: m.Company, Contact: m.Contact, Email: m.Email, Phone: m.Phone,
		Status: memberDomain.ApplicationStatus(m.Status), Note: m.Note,
		DecidedBy: m.DecidedBy, DecidedAt: m.DecidedAt, CreatedAt: m.CreatedAt,
	}
}

// GormMemberRegistrationRepository implements the member registration
// repository (store B).
type GormMemberRegistrationRepository struct {
	db *gorm.DB
}

// NewMemberRegistrationRepository creates a new member registration repository.
func NewMemberRegistrationRepository(db *gorm.DB) *GormMemberRegistrationRepository {
	return &GormMemberRegistrationRepository{db: db}
}

// Save persists a new member registration.
func (r *GormMemberRegistrationRepository) Save(ctx context.Context, reg *memberDomain.Registration) error {
	model := toMemberRegistrationModel(reg)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing member registration.
func (r *GormMemberRegistrationRepository) Update(ctx context.Context, reg *memberDomain.Registration) error {
	model := toMemberRegistrationModel(reg)
	result := r.db.WithContext(ctx).
		Model(&MemberRegistrationModel{}).
		Where("id = ?", model.ID).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("member registration", model.ID.String())
	}
	return nil
}

// FindByID retrieves a member registration by ID.
func (r *GormMemberRegistrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*memberDomain.Registration, error) {
	var model MemberRegistrationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("member registration", id.String())
		}
		return nil, err
	}
	return toMemberRegistrationDomain(&model), nil
}

// FindByOrderNo retrieves a member registration by merchant order number.
func (r *GormMemberRegistrationRepository) FindByOrderNo(ctx context.Context, orderNo string) (*memberDomain.Registration, error) {
	var model MemberRegistrationModel
	if err := r.db.WithContext(ctx).Where("merchant_order_no = ?", orderNo).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("member registration", orderNo)
		}
		return nil, err
	}
	return toMemberRegistrationDomain(&model), nil
}

// MarkPaidByOrderNo applies the payment overwrite with the same semantics as
// the general registration store.
func (r *GormMemberRegistrationRepository) MarkPaidByOrderNo(ctx context.Context, orderNo string, upd payment.Update) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&MemberRegistrationModel{}).
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
func (r *GormMemberRegistrationRepository) RevenueStats(ctx context.Context) (int64, map[string]int64, error) {
	var totalRevenue int64
	if err := r.db.WithContext(ctx).Model(&MemberRegistrationModel{}).
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
	if err := r.db.WithContext(ctx).Model(&MemberRegistrationModel{}).
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

func toMemberRegistrationModel(reg *memberDomain.Registration) *MemberRegistrationModel {
	return &MemberRegistrationModel{
		ID:              reg.ID(),
		MemberID:        reg.MemberID(),
		ActivityID:      reg.ActivityID(),
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

func toMemberRegistrationDomain(m *MemberRegistrationModel) *memberDomain.Registration {
	return memberDomain.ReconstituteRegistration(
		m.ID,
		m.MemberID,
		m.ActivityID,
		m.AmountDue,
		payment.Status(m.PaymentStatus),
		m.PaidAmount,
		m.PaidAt,
		m.MerchantOrderNo,
		m.PaymentMethod,
		m.CheckedInAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
