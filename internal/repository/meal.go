package repository

import (
	"context"
	"time"

	"github.com/oosca/comeals-backend/internal/domain"
)

// MealRepository stores meals and their counter caches.
type MealRepository interface {
	// FindByID loads one meal. Returns ErrMealNotFound when absent.
	FindByID(ctx context.Context, id uint) (*domain.Meal, error)

	// FindByDate loads the meal for a community on a given calendar day,
	// if one exists. Returns ErrMealNotFound when absent.
	FindByDate(ctx context.Context, communityID uint, date time.Time) (*domain.Meal, error)

	// Save creates or updates a meal.
	Save(ctx context.Context, meal *domain.Meal) error

	// UpdateMax writes the attendee ceiling. A nil max clears it.
	UpdateMax(ctx context.Context, id uint, max *int) error

	// UpdateClosed writes the closed flag together with its paired
	// closed_at timestamp and max snapshot in one statement.
	UpdateClosed(ctx context.Context, id uint, closed bool, closedAt *time.Time, max *int) error

	// FindUnreconciled lists meals not yet folded into a reconciliation,
	// dated strictly before the cutoff.
	FindUnreconciled(ctx context.Context, communityID uint, before time.Time) ([]domain.Meal, error)

	// CreateReconciliation inserts a settlement batch row.
	CreateReconciliation(ctx context.Context, rec *domain.Reconciliation) error

	// MarkReconciled stamps a batch of meals with a reconciliation id.
	MarkReconciled(ctx context.Context, mealIDs []uint, reconciliationID uint) error
}

// CommunityRepository reads and writes community settings used by meal
// scheduling.
type CommunityRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.Community, error)

	// FindAll lists every community, used by the reconciliation sweep.
	FindAll(ctx context.Context) ([]domain.Community, error)

	// Save persists community settings, in particular the alternating
	// dinner day after a template run flips it.
	Save(ctx context.Context, community *domain.Community) error

	// HolidaysBetween lists holiday dates for the community inside
	// [start, end), used to skip template generation.
	HolidaysBetween(ctx context.Context, communityID uint, start, end time.Time) ([]domain.Holiday, error)
}
