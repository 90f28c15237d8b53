package repository

import (
	"context"
	"errors"
	"time"

	actDomain "github.com/assocdesk/service-registration/internal/domain/activity"
	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityModel is the GORM model for the activities table.
type ActivityModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	Venue       string    `gorm:"type:varchar(200)"`
	StartsAt    time.Time `gorm:"type:timestamptz;not null"`
	EndsAt      time.Time `gorm:"type:timestamptz;not null"`
	Capacity    int       `gorm:"not null"`
	Price       int64     `gorm:"not null"`
	MemberPrice int64     `gorm:"not null"`
	Published   bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null"`
}

// TableName sets the table name.
func (ActivityModel) TableName() string { return "activities" }

// GormActivityRepository implements the activity repository.
type GormActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new GormActivityRepository.
func NewActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Save persists a new activity.
func (r *GormActivityRepository) Save(ctx context.Context, a *actDomain.Activity) error {
	model := toActivityModel(a)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists changes to an existing activity. The published flag is
// written explicitly because struct Updates skips zero values.
func (r *GormActivityRepository) Update(ctx context.Context, a *actDomain.Activity) error {
	model := toActivityModel(a)
	result := r.db.WithContext(ctx).
		Model(&ActivityModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"title":        model.Title,
			"description":  model.Description,
			"venue":        model.Venue,
			"starts_at":    model.StartsAt,
			"ends_at":      model.EndsAt,
			"capacity":     model.Capacity,
			"price":        model.Price,
			"member_price": model.MemberPrice,
			"published":    model.Published,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("activity", model.ID.String())
	}
	return nil
}

// FindByID returns an activity by ID.
func (r *GormActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*actDomain.Activity, error) {
	var model ActivityModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("activity", id.String())
		}
		return nil, err
	}
	return toActivityDomain(&model), nil
}

// ListPublished returns all published activities, soonest first.
func (r *GormActivityRepository) ListPublished(ctx context.Context) ([]*actDomain.Activity, error) {
	var models []ActivityModel
	if err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("starts_at").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*actDomain.Activity, len(models))
	for i := range models {
		out[i] = toActivityDomain(&models[i])
	}
	return out, nil
}

// ListAll returns all activities with pagination (admin).
func (r *GormActivityRepository) ListAll(ctx context.Context, page, limit int) ([]*actDomain.Activity, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ActivityModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ActivityModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("starts_at DESC").Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*actDomain.Activity, len(models))
	for i := range models {
		out[i] = toActivityDomain(&models[i])
	}
	return out, total, nil
}

func toActivityModel(a *actDomain.Activity) *ActivityModel {
	return &ActivityModel{
		ID: a.ID(), Title: a.Title(), Description: a.Description(), Venue: a.Venue(),
		StartsAt: a.StartsAt(), EndsAt: a.EndsAt(), Capacity: a.Capacity(),
		Price: a.Price(), MemberPrice: a.MemberPrice(), Published: a.Published(),
		CreatedAt: a.CreatedAt(), UpdatedAt: a.UpdatedAt(),
	}
}

func toActivityDomain(m *ActivityModel) *actDomain.Activity {
	return actDomain.Reconstitute(
		m.ID, m.Title, m.Description, m.Venue,
		m.StartsAt, m.EndsAt, m.Capacity,
		m.Price, m.MemberPrice, m.Published,
		m.CreatedAt, m.UpdatedAt,
	)
}
