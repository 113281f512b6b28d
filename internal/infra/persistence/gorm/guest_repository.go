package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
)

// GormGuestRepository is the gorm implementation of GuestRepository. Like
// attendance, guest rows and the meal counters move in one transaction.
type GormGuestRepository struct {
	db *gorm.DB
}

func NewGormGuestRepository(db *gorm.DB) *GormGuestRepository {
	if db == nil {
		panic("database connection cannot be nil for GormGuestRepository")
	}
	return &GormGuestRepository{db: db}
}

func (r *GormGuestRepository) FindByID(ctx context.Context, id uint) (*domain.Guest, error) {
	var guest domain.Guest
	err := r.db.WithContext(ctx).First(&guest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrGuestNotFound
		}
		return nil, fmt.Errorf("gorm: find guest by id %d: %w", id, err)
	}
	return &guest, nil
}

func (r *GormGuestRepository) FindByMeal(ctx context.Context, mealID uint) ([]domain.Guest, error) {
	var guests []domain.Guest
	err := r.db.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Order("created_at desc, id desc").
		Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find guests for meal %d: %w", mealID, err)
	}
	return guests, nil
}

func (r *GormGuestRepository) FindByHost(ctx context.Context, mealID, residentID uint) ([]domain.Guest, error) {
	var guests []domain.Guest
	err := r.db.WithContext(ctx).
		Where("meal_id = ? AND resident_id = ?", mealID, residentID).
		Order("created_at desc, id desc").
		Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find guests for meal %d host %d: %w", mealID, residentID, err)
	}
	return guests, nil
}

func (r *GormGuestRepository) Create(ctx context.Context, guest *domain.Guest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(guest).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Meal{}).
			Where("id = ?", guest.MealID).
			Updates(map[string]interface{}{
				"guests_count":      gorm.Expr("guests_count + 1"),
				"guests_multiplier": gorm.Expr("guests_multiplier + ?", guest.Multiplier),
			}).Error
	})
	if err != nil {
		return fmt.Errorf("gorm: create guest for meal %d: %w", guest.MealID, err)
	}
	return nil
}

func (r *GormGuestRepository) Delete(ctx context.Context, guest *domain.Guest) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Guest{}, guest.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrGuestNotFound
		}
		return tx.Model(&domain.Meal{}).
			Where("id = ?", guest.MealID).
			Updates(map[string]interface{}{
				"guests_count":      gorm.Expr("guests_count - 1"),
				"guests_multiplier": gorm.Expr("guests_multiplier - ?", guest.Multiplier),
			}).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrGuestNotFound) {
			return err
		}
		return fmt.Errorf("gorm: delete guest %d: %w", guest.ID, err)
	}
	return nil
}

func (r *GormGuestRepository) UpdateName(ctx context.Context, id uint, name *string) error {
	err := r.db.WithContext(ctx).Model(&domain.Guest{}).
		Where("id = ?", id).
		Update("name", name).Error
	if err != nil {
		return fmt.Errorf("gorm: update guest %d name: %w", id, err)
	}
	return nil
}
