package database

import "paddock/internal/models"

// PersistentModels lists every gorm model backed by a table, parents first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Team{},
		&models.Driver{},
		&models.Post{},
		&models.Reaction{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollVote{},
		&models.RaceWeekend{},
	}
}
