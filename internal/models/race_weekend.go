package models

import "time"

// RaceWeekendID is the primary key of the single race-weekend row.
const RaceWeekendID uint = 1

// RaceWeekend is a global flag telling the feed a race weekend is underway.
// Exactly one row exists, with ID RaceWeekendID.
type RaceWeekend struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}
