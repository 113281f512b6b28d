package repository

import (
	"context"

	"github.com/oosca/comeals-backend/internal/domain"
)

// GuestRepository stores guest reservations and keeps the owning meal's
// guests_count and guests_multiplier caches in step, in the same
// transaction as the row change.
type GuestRepository interface {
	// FindByID loads one guest. Returns ErrGuestNotFound when absent.
	FindByID(ctx context.Context, id uint) (*domain.Guest, error)

	// FindByMeal lists every guest at a meal, newest first.
	FindByMeal(ctx context.Context, mealID uint) ([]domain.Guest, error)

	// FindByHost lists the guests one resident hosts at a meal, newest
	// first. Ordering is created_at descending with id descending as the
	// tie break, which is what last-in-first-out removal relies on.
	FindByHost(ctx context.Context, mealID, residentID uint) ([]domain.Guest, error)

	// Create inserts the guest and bumps the meal counters.
	Create(ctx context.Context, guest *domain.Guest) error

	// Delete removes the guest and decrements the meal counters.
	Delete(ctx context.Context, guest *domain.Guest) error

	// UpdateName fills in or changes a guest's name.
	UpdateName(ctx context.Context, id uint, name *string) error
}
