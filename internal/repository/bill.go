package repository

import (
	"context"

	"github.com/oosca/comeals-backend/internal/domain"
)

// BillRepository stores cook bills. Saving a bill recomputes the owning
// meal's accrued cost and bills_count in the same transaction.
type BillRepository interface {
	// Find loads the bill for a meal+resident pair.
	// Returns ErrNotFound when absent.
	Find(ctx context.Context, mealID, residentID uint) (*domain.Bill, error)

	// FindByMeal lists all bills for a meal.
	FindByMeal(ctx context.Context, mealID uint) ([]domain.Bill, error)

	// Save creates or updates a bill and refreshes the meal cost cache.
	Save(ctx context.Context, bill *domain.Bill) error

	// Delete removes a bill and refreshes the meal cost cache.
	Delete(ctx context.Context, bill *domain.Bill) error
}

// AuditRepository persists the meal change log. Entries arrive from the
// task queue and are written in batches.
type AuditRepository interface {
	SaveBatch(ctx context.Context, entries []domain.MealAudit) error
}
