package repository

import (
	"context"

	"github.com/oosca/comeals-backend/internal/domain"
)

// AttendanceRepository stores meal_residents rows and keeps the owning
// meal's counter caches in step. Create and Delete adjust the meal's
// meal_residents_count and meal_residents_multiplier inside the same
// transaction as the row change.
type AttendanceRepository interface {
	// Find loads the attendance record for a meal+resident pair.
	// Returns ErrAttendanceNotFound when the resident is not attending.
	Find(ctx context.Context, mealID, residentID uint) (*domain.MealResident, error)

	// FindByMeal lists all attendance records for a meal.
	FindByMeal(ctx context.Context, mealID uint) ([]domain.MealResident, error)

	// Create inserts the record and bumps the meal counters.
	// Returns ErrDuplicateEntry if the resident already attends.
	Create(ctx context.Context, record *domain.MealResident) error

	// Delete removes the record and decrements the meal counters.
	Delete(ctx context.Context, record *domain.MealResident) error

	// UpdateFlags writes the late/vegetarian flags. Nil pointers leave the
	// corresponding flag untouched.
	UpdateFlags(ctx context.Context, mealID, residentID uint, late, vegetarian *bool) error
}
