// Package gormpersistence implements the repository interfaces on MySQL
// through gorm. Driver errors are mapped to the repository sentinels here so
// nothing above this package sees gorm or MySQL error codes.
package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
)

// GormMealRepository is the gorm implementation of MealRepository.
type GormMealRepository struct {
	db *gorm.DB
}

func NewGormMealRepository(db *gorm.DB) *GormMealRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMealRepository")
	}
	return &GormMealRepository{db: db}
}

func (r *GormMealRepository) FindByID(ctx context.Context, id uint) (*domain.Meal, error) {
	var meal domain.Meal
	err := r.db.WithContext(ctx).First(&meal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMealNotFound
		}
		return nil, fmt.Errorf("gorm: find meal by id %d: %w", id, err)
	}
	return &meal, nil
}

func (r *GormMealRepository) FindByDate(ctx context.Context, communityID uint, date time.Time) (*domain.Meal, error) {
	var meal domain.Meal
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND date = ?", communityID, date.Format("2006-01-02")).
		First(&meal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMealNotFound
		}
		return nil, fmt.Errorf("gorm: find meal by date %s: %w", date.Format("2006-01-02"), err)
	}
	return &meal, nil
}

func (r *GormMealRepository) Save(ctx context.Context, meal *domain.Meal) error {
	err := r.db.WithContext(ctx).Save(meal).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save meal (id: %d): %w", meal.ID, err)
	}
	return nil
}

func (r *GormMealRepository) UpdateMax(ctx context.Context, id uint, max *int) error {
	result := r.db.WithContext(ctx).Model(&domain.Meal{}).
		Where("id = ?", id).
		Update("max", max)
	if result.Error != nil {
		return fmt.Errorf("gorm: update meal %d max: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		// Same-value updates also report zero rows, so double check.
		var count int64
		r.db.WithContext(ctx).Model(&domain.Meal{}).Where("id = ?", id).Count(&count)
		if count == 0 {
			return repository.ErrMealNotFound
		}
	}
	return nil
}

func (r *GormMealRepository) UpdateClosed(ctx context.Context, id uint, closed bool, closedAt *time.Time, max *int) error {
	err := r.db.WithContext(ctx).Model(&domain.Meal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"closed":    closed,
			"closed_at": closedAt,
			"max":       max,
		}).Error
	if err != nil {
		return fmt.Errorf("gorm: update meal %d closed: %w", id, err)
	}
	return nil
}

func (r *GormMealRepository) FindUnreconciled(ctx context.Context, communityID uint, before time.Time) ([]domain.Meal, error) {
	var meals []domain.Meal
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND reconciliation_id IS NULL AND date < ?", communityID, before.Format("2006-01-02")).
		Order("date asc").
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find unreconciled meals for community %d: %w", communityID, err)
	}
	return meals, nil
}

func (r *GormMealRepository) CreateReconciliation(ctx context.Context, rec *domain.Reconciliation) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("gorm: create reconciliation: %w", err)
	}
	return nil
}

func (r *GormMealRepository) MarkReconciled(ctx context.Context, mealIDs []uint, reconciliationID uint) error {
	if len(mealIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&domain.Meal{}).
		Where("id IN ?", mealIDs).
		Update("reconciliation_id", reconciliationID).Error
	if err != nil {
		return fmt.Errorf("gorm: mark %d meals reconciled: %w", len(mealIDs), err)
	}
	return nil
}

// GormCommunityRepository is the gorm implementation of CommunityRepository.
type GormCommunityRepository struct {
	db *gorm.DB
}

func NewGormCommunityRepository(db *gorm.DB) *GormCommunityRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCommunityRepository")
	}
	return &GormCommunityRepository{db: db}
}

func (r *GormCommunityRepository) FindByID(ctx context.Context, id uint) (*domain.Community, error) {
	var community domain.Community
	err := r.db.WithContext(ctx).First(&community, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCommunityNotFound
		}
		return nil, fmt.Errorf("gorm: find community by id %d: %w", id, err)
	}
	return &community, nil
}

func (r *GormCommunityRepository) FindAll(ctx context.Context) ([]domain.Community, error) {
	var communities []domain.Community
	err := r.db.WithContext(ctx).Order("id asc").Find(&communities).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find all communities: %w", err)
	}
	return communities, nil
}

func (r *GormCommunityRepository) Save(ctx context.Context, community *domain.Community) error {
	err := r.db.WithContext(ctx).Save(community).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save community (id: %d): %w", community.ID, err)
	}
	return nil
}

func (r *GormCommunityRepository) HolidaysBetween(ctx context.Context, communityID uint, start, end time.Time) ([]domain.Holiday, error) {
	var holidays []domain.Holiday
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND date >= ? AND date < ?",
			communityID, start.Format("2006-01-02"), end.Format("2006-01-02")).
		Find(&holidays).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find holidays for community %d: %w", communityID, err)
	}
	return holidays, nil
}

// isDuplicateEntryError checks for MySQL error 1062 (duplicate key).
func isDuplicateEntryError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
