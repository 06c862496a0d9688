package repository

import (
	"context"
	"errors"

	"paddock/internal/models"

	"gorm.io/gorm"
)

// RaceWeekendRepository reads and writes the single race-weekend row.
type RaceWeekendRepository interface {
	Get(ctx context.Context) (*models.RaceWeekend, error)
	SetActive(ctx context.Context, active bool) (*models.RaceWeekend, error)
}

type raceWeekendRepository struct {
	db *gorm.DB
}

// NewRaceWeekendRepository returns a new RaceWeekendRepository implementation.
func NewRaceWeekendRepository(db *gorm.DB) RaceWeekendRepository {
	return &raceWeekendRepository{db: db}
}

// Get returns row RaceWeekendID. A missing row reads as inactive.
func (r *raceWeekendRepository) Get(ctx context.Context) (*models.RaceWeekend, error) {
	var rw models.RaceWeekend
	err := r.db.WithContext(ctx).First(&rw, models.RaceWeekendID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.RaceWeekend{ID: models.RaceWeekendID}, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &rw, nil
}

// SetActive updates row RaceWeekendID, creating it if needed.
func (r *raceWeekendRepository) SetActive(ctx context.Context, active bool) (*models.RaceWeekend, error) {
	rw := &models.RaceWeekend{ID: models.RaceWeekendID, IsActive: active}
	if err := r.db.WithContext(ctx).Save(rw).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rw, nil
}
