package database

import (
	"context"
	"fmt"

	"paddock/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureRaceWeekend creates the inactive race-weekend row if it is missing.
// Existing state is left alone.
func EnsureRaceWeekend(ctx context.Context, db *gorm.DB) error {
	row := models.RaceWeekend{ID: models.RaceWeekendID, IsActive: false}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("ensure race weekend row: %w", err)
	}
	return nil
}
