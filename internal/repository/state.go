package repository

import (
	"context"
	"time"
)

// MealUpdate is the invalidation message broadcast to every viewer of a
// meal whenever any of its fields change server-side. SessionID is the
// opaque identifier of the request that caused the change; viewers drop
// messages carrying their own session id.
type MealUpdate struct {
	MealID    uint   `json:"meal_id"`
	Type      string `json:"type"` // always "update"
	SessionID string `json:"session_id"`
}

// StateRepository covers the ephemeral concerns backed by Redis: the
// cross-instance invalidation channel, the sweep bookkeeping, and request
// rate limiting.
type StateRepository interface {
	// PublishUpdate fans an invalidation message out to every server
	// instance with viewers of the meal.
	PublishUpdate(ctx context.Context, update MealUpdate) error

	// SubscribeUpdates delivers invalidation messages for one meal until
	// the context is cancelled. The returned channel is closed on exit.
	SubscribeUpdates(ctx context.Context, mealID uint) (<-chan MealUpdate, error)

	// GetLastSweepTime returns when the reconciliation sweep last ran for
	// a community, zero time when it never has.
	GetLastSweepTime(ctx context.Context, communityID uint) (time.Time, error)

	// SetLastSweepTime records a sweep run, expiring after ttl.
	SetLastSweepTime(ctx context.Context, communityID uint, at time.Time, ttl time.Duration) error

	// CheckRateLimit increments the counter for key and reports whether
	// the limit inside the window was exceeded.
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
