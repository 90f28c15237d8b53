package activity

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for activities.
type Repository interface {
	Save(ctx context.Context, a *Activity) error
	Update(ctx context.Context, a *Activity) error
	FindByID(ctx context.Context, id uuid.UUID) (*Activity, error)
	ListPublished(ctx context.Context) ([]*Activity, error)
	ListAll(ctx context.Context, page, limit int) ([]*Activity, int64, error)
}
