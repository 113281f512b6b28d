package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/oosca/comeals-backend/internal/domain"
	"github.com/oosca/comeals-backend/internal/repository"
)

// GormResidentRepository is the gorm implementation of ResidentRepository.
type GormResidentRepository struct {
	db *gorm.DB
}

func NewGormResidentRepository(db *gorm.DB) *GormResidentRepository {
	if db == nil {
		panic("database connection cannot be nil for GormResidentRepository")
	}
	return &GormResidentRepository{db: db}
}

func (r *GormResidentRepository) FindByID(ctx context.Context, id uint) (*domain.Resident, error) {
	var resident domain.Resident
	err := r.db.WithContext(ctx).First(&resident, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResidentNotFound
		}
		return nil, fmt.Errorf("gorm: find resident by id %d: %w", id, err)
	}
	return &resident, nil
}

func (r *GormResidentRepository) FindByEmail(ctx context.Context, email string) (*domain.Resident, error) {
	var resident domain.Resident
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&resident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrResidentNotFound
		}
		return nil, fmt.Errorf("gorm: find resident by email '%s': %w", email, err)
	}
	return &resident, nil
}

func (r *GormResidentRepository) FindActiveByCommunity(ctx context.Context, communityID uint) ([]domain.Resident, error) {
	var residents []domain.Resident
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND active = ?", communityID, true).
		Order("name asc").
		Find(&residents).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active residents for community %d: %w", communityID, err)
	}
	return residents, nil
}

func (r *GormResidentRepository) Save(ctx context.Context, resident *domain.Resident) error {
	err := r.db.WithContext(ctx).Save(resident).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save resident (id: %d, name: %s): %w", resident.ID, resident.Name, err)
	}
	return nil
}
