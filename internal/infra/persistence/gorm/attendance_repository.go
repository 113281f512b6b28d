package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
)

// GormAttendanceRepository is the gorm implementation of
// AttendanceRepository. Row changes and the meal counter updates share one
// transaction, so a failed counter bump rolls the row back too.
type GormAttendanceRepository struct {
	db *gorm.DB
}

func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	if db == nil {
		panic("database connection cannot be nil for GormAttendanceRepository")
	}
	return &GormAttendanceRepository{db: db}
}

func (r *GormAttendanceRepository) Find(ctx context.Context, mealID, residentID uint) (*domain.MealResident, error) {
	var record domain.MealResident
	err := r.db.WithContext(ctx).
		Where("meal_id = ? AND resident_id = ?", mealID, residentID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("gorm: find attendance meal %d resident %d: %w", mealID, residentID, err)
	}
	return &record, nil
}

func (r *GormAttendanceRepository) FindByMeal(ctx context.Context, mealID uint) ([]domain.MealResident, error) {
	var records []domain.MealResident
	err := r.db.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find attendance for meal %d: %w", mealID, err)
	}
	return records, nil
}

func (r *GormAttendanceRepository) Create(ctx context.Context, record *domain.MealResident) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Meal{}).
			Where("id = ?", record.MealID).
			Updates(map[string]interface{}{
				"meal_residents_count":      gorm.Expr("meal_residents_count + 1"),
				"meal_residents_multiplier": gorm.Expr("meal_residents_multiplier + ?", record.Multiplier),
			}).Error
	})
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create attendance meal %d resident %d: %w", record.MealID, record.ResidentID, err)
	}
	return nil
}

func (r *GormAttendanceRepository) Delete(ctx context.Context, record *domain.MealResident) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("meal_id = ? AND resident_id = ?", record.MealID, record.ResidentID).
			Delete(&domain.MealResident{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrAttendanceNotFound
		}
		return tx.Model(&domain.Meal{}).
			Where("id = ?", record.MealID).
			Updates(map[string]interface{}{
				"meal_residents_count":      gorm.Expr("meal_residents_count - 1"),
				"meal_residents_multiplier": gorm.Expr("meal_residents_multiplier - ?", record.Multiplier),
			}).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrAttendanceNotFound) {
			return err
		}
		return fmt.Errorf("gorm: delete attendance meal %d resident %d: %w", record.MealID, record.ResidentID, err)
	}
	return nil
}

func (r *GormAttendanceRepository) UpdateFlags(ctx context.Context, mealID, residentID uint, late, vegetarian *bool) error {
	updates := make(map[string]interface{}, 2)
	if late != nil {
		updates["late"] = *late
	}
	if vegetarian != nil {
		updates["vegetarian"] = *vegetarian
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&domain.MealResident{}).
		Where("meal_id = ? AND resident_id = ?", mealID, residentID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gorm: update attendance flags meal %d resident %d: %w", mealID, residentID, result.Error)
	}
	return nil
}
