package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
)

// GormBillRepository is the gorm implementation of BillRepository. The
// meal's cost cache is the sum of its bills, recomputed inside the same
// transaction as any bill write.
type GormBillRepository struct {
	db *gorm.DB
}

func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	if db == nil {
		panic("database connection cannot be nil for GormBillRepository")
	}
	return &GormBillRepository{db: db}
}

func (r *GormBillRepository) Find(ctx context.Context, mealID, residentID uint) (*domain.Bill, error) {
	var bill domain.Bill
	err := r.db.WithContext(ctx).
		Where("meal_id = ? AND resident_id = ?", mealID, residentID).
		First(&bill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gorm: find bill meal %d resident %d: %w", mealID, residentID, err)
	}
	return &bill, nil
}

func (r *GormBillRepository) FindByMeal(ctx context.Context, mealID uint) ([]domain.Bill, error) {
	var bills []domain.Bill
	err := r.db.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Find(&bills).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find bills for meal %d: %w", mealID, err)
	}
	return bills, nil
}

func (r *GormBillRepository) Save(ctx context.Context, bill *domain.Bill) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		creating := bill.ID == 0
		if err := tx.Save(bill).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"cost": gorm.Expr("(SELECT COALESCE(SUM(amount_cents), 0) FROM bills WHERE meal_id = ?)", bill.MealID),
		}
		if creating {
			updates["bills_count"] = gorm.Expr("bills_count + 1")
		}
		return tx.Model(&domain.Meal{}).
			Where("id = ?", bill.MealID).
			Updates(updates).Error
	})
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save bill meal %d resident %d: %w", bill.MealID, bill.ResidentID, err)
	}
	return nil
}

func (r *GormBillRepository) Delete(ctx context.Context, bill *domain.Bill) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Bill{}, bill.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return tx.Model(&domain.Meal{}).
			Where("id = ?", bill.MealID).
			Updates(map[string]interface{}{
				"bills_count": gorm.Expr("bills_count - 1"),
				"cost":        gorm.Expr("(SELECT COALESCE(SUM(amount_cents), 0) FROM bills WHERE meal_id = ?)", bill.MealID),
			}).Error
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("gorm: delete bill %d: %w", bill.ID, err)
	}
	return nil
}

// GormAuditRepository persists the meal change log.
type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	if db == nil {
		panic("database connection cannot be nil for GormAuditRepository")
	}
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) SaveBatch(ctx context.Context, entries []domain.MealAudit) error {
	if len(entries) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(entries, 100).Error; err != nil {
		return fmt.Errorf("gorm: save %d audit entries: %w", len(entries), err)
	}
	return nil
}
