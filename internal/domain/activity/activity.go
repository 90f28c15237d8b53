package activity

import (
	"strings"
	"time"

	"github.com/assocdesk/service-registration/internal/domain"
	"github.com/google/uuid"
)

// Activity is the aggregate root for an association event open for
// registration. Prices are integers in the gateway's currency unit.
type Activity struct {
	id          uuid.UUID
	title       string
	description string
	venue       string
	startsAt    time.Time
	endsAt      time.Time
	capacity    int
	price       int64
	memberPrice int64
	published   bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewActivity creates an unpublished activity.
func NewActivity(title, description, venue string, startsAt, endsAt time.Time, capacity int, price, memberPrice int64) (*Activity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if endsAt.Before(startsAt) {
		return nil, domain.NewValidationError("ends_at must be after starts_at")
	}
	if capacity <= 0 {
		return nil, domain.NewValidationError("capacity must be positive")
	}
	if price < 0 || memberPrice < 0 {
		return nil, domain.NewValidationError("price cannot be negative")
	}

	now := time.Now().UTC()
	return &Activity{
		id:          uuid.New(),
		title:       title,
		description: description,
		venue:       venue,
		startsAt:    startsAt,
		endsAt:      endsAt,
		capacity:    capacity,
		price:       price,
		memberPrice: memberPrice,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func (a *Activity) ID() uuid.UUID       { return a.id }
func (a *Activity) Title() string       { return a.title }
func (a *Activity) Description() string { return a.description }
func (a *Activity) Venue() string       { return a.venue }
func (a *Activity) StartsAt() time.Time { return a.startsAt }
func (a *Activity) EndsAt() time.Time   { return a.endsAt }
func (a *Activity) Capacity() int       { return a.capacity }
func (a *Activity) Price() int64        { return a.price }
func (a *Activity) MemberPrice() int64  { return a.memberPrice }
func (a *Activity) Published() bool     { return a.published }
func (a *Activity) CreatedAt() time.Time { return a.createdAt }
func (a *Activity) UpdatedAt() time.Time { return a.updatedAt }

// Publish makes the activity visible on the public site.
func (a *Activity) Publish() {
	a.published = true
	a.updatedAt = time.Now().UTC()
}

// Unpublish hides the activity from the public site.
func (a *Activity) Unpublish() {
	a.published = false
	a.updatedAt = time.Now().UTC()
}

// Reconstitute rebuilds an Activity from persistence.
func Reconstitute(id uuid.UUID, title, description, venue string, startsAt, endsAt time.Time, capacity int, price, memberPrice int64, published bool, createdAt, updatedAt time.Time) *Activity {
	return &Activity{
		id: id, title: title, description: description, venue: venue,
		startsAt: startsAt, endsAt: endsAt, capacity: capacity,
		price: price, memberPrice: memberPrice, published: published,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}
