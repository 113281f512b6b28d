package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/oosca/comeals-backend/internal/domain"
)

// MigrateDB brings the schema up to date for every domain model. The models
// keep indexed string columns at varchar(191) so utf8mb4 unique indexes fit
// inside MySQL's key length limit.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.Community{},
		&domain.Holiday{},
		&domain.Resident{},
		&domain.Meal{},
		&domain.MealResident{},
		&domain.Guest{},
		&domain.Bill{},
		&domain.Reconciliation{},
		&domain.MealAudit{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	return nil
}
