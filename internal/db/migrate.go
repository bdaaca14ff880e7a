package db

import (
	"fmt"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.WorkOrder{},
		&models.Item{},
		&models.SubTask{},
		&models.Assignment{},
		&models.PausePeriod{},
		&models.WorkLog{},
		&models.Worker{},
		&models.Attendance{},
		&models.Material{},
	}
}

// AutoMigrate creates or updates all Benchline tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedWorker upserts a worker row, updating name, role and rate on
// conflict so repeated seeding stays idempotent.
func SeedWorker(db *gorm.DB, w models.Worker) error {
	w.Active = true
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role", "daily_rate", "active"}),
	}).Create(&w)
	if result.Error != nil {
		return fmt.Errorf("db: seed worker %q: %w", w.ID, result.Error)
	}
	return nil
}
