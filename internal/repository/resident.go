package repository

import (
	"context"

	"github.com/oosca/comeals-backend/internal/domain"
)

// ResidentRepository reads and writes residents.
type ResidentRepository interface {
	// FindByID loads one resident. Returns ErrResidentNotFound when absent.
	FindByID(ctx context.Context, id uint) (*domain.Resident, error)

	// FindByEmail loads a resident by login email.
	// Returns ErrResidentNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*domain.Resident, error)

	// FindActiveByCommunity lists active residents of a community.
	FindActiveByCommunity(ctx context.Context, communityID uint) ([]domain.Resident, error)

	// Save creates or updates a resident.
	Save(ctx context.Context, resident *domain.Resident) error
}
