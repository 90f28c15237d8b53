package application

import (
	"context"
	"time"

	"github.com/assocdesk/service-registration/internal/domain/activity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityInput carries the fields for creating or updating an activity.
type ActivityInput struct {
	Title       string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	Capacity    int
	Price       int64
	MemberPrice int64
}

// ActivityService manages activities for the admin surface and the public
// listing.
type ActivityService struct {
	activities activity.Repository
	logger     *zap.Logger
}

// NewActivityService creates the activity service.
func NewActivityService(activities activity.Repository, logger *zap.Logger) *ActivityService {
	return &ActivityService{activities: activities, logger: logger}
}

// Create adds a new unpublished activity.
func (s *ActivityService) Create(ctx context.Context, input ActivityInput) (*activity.Activity, error) {
	act, err := activity.NewActivity(input.Title, input.Description, input.Venue,
		input.StartsAt, input.EndsAt, input.Capacity, input.Price, input.MemberPrice)
	if err != nil {
		return nil, err
	}
	if err := s.activities.Save(ctx, act); err != nil {
		return nil, err
	}
	s.logger.Info("activity created", zap.String("activity_id", act.ID().String()))
	return act, nil
}

// Update replaces the editable fields of an activity, preserving its
// published flag.
func (s *ActivityService) Update(ctx context.Context, id uuid.UUID, input ActivityInput) (*activity.Activity, error) {
	existing, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := activity.NewActivity(input.Title, input.Description, input.Venue,
		input.StartsAt, input.EndsAt, input.Capacity, input.Price, input.MemberPrice)
	if err != nil {
		return nil, err
	}

	act := activity.Reconstitute(
		existing.ID(), updated.Title(), updated.Description(), updated.Venue(),
		updated.StartsAt(), updated.EndsAt(), updated.Capacity(),
		updated.Price(), updated.MemberPrice(), existing.Published(),
		existing.CreatedAt(), time.Now().UTC(),
	)
	if err := s.activities.Update(ctx, act); err != nil {
		return nil, err
	}
	return act, nil
}

// SetPublished publishes or unpublishes an activity.
func (s *ActivityService) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*activity.Activity, error) {
	act, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if published {
		act.Publish()
	} else {
		act.Unpublish()
	}
	if err := s.activities.Update(ctx, act); err != nil {
		return nil, err
	}
	return act, nil
}

// Get returns one activity.
func (s *ActivityService) Get(ctx context.Context, id uuid.UUID) (*activity.Activity, error) {
	return s.activities.FindByID(ctx, id)
}

// ListPublished returns the public activity listing.
func (s *ActivityService) ListPublished(ctx context.Context) ([]*activity.Activity, error) {
	return s.activities.ListPublished(ctx)
}

// ListAll returns all activities for the admin surface.
func (s *ActivityService) ListAll(ctx context.Context, page, limit int) ([]*activity.Activity, int64, error) {
	return s.activities.ListAll(ctx, page, limit)
}
