// Package seed loads the reference grid and generates demo content for
// development databases.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"paddock/internal/middleware"
	"paddock/internal/models"

	"gorm.io/gorm"
)

// DemoPassword is the password shared by every generated user.
const DemoPassword = "paddock-demo"

// Options configures demo content generation.
type Options struct {
	NumUsers        int
	NumPosts        int
	MaxDays         int
	ReactionPercent int
	VotePercent     int
	Password        string
	ShouldClean     bool
	RandSeed        int64
	// Grid replaces the embedded grid when set.
	Grid *Grid
}

func (o Options) withDefaults() Options {
	if o.MaxDays <= 0 {
		o.MaxDays = 30
	}
	if o.ReactionPercent <= 0 {
		o.ReactionPercent = 35
	}
	if o.VotePercent <= 0 {
		o.VotePercent = 50
	}
	if o.Password == "" {
		o.Password = DemoPassword
	}
	return o
}

// Result summarises a Seed run.
type Result struct {
	Grid      *GridResult
	Users     int
	Posts     int
	Polls     int
	Reactions int
	Votes     int
}

// Seed makes sure the grid exists and then fills the feed with demo users,
// posts, polls, reactions and votes.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := middleware.Logger

	if opts.ShouldClean {
		log.Info("Cleaning demo content")
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
	}

	var err error
	grid := opts.Grid
	if grid == nil {
		if grid, err = DefaultGrid(); err != nil {
			return nil, err
		}
	}
	result := &Result{}
	if result.Grid, err = SeedGrid(ctx, db, grid); err != nil {
		return nil, err
	}
	log.Info("Grid seeded", slog.Int("teams", result.Grid.Teams), slog.Int("drivers_created", result.Grid.DriversCreated))

	f := NewFactory(db, opts)
	if err := f.LoadTeams(ctx); err != nil {
		return nil, err
	}

	users, err := f.CreateUsers(ctx, opts.NumUsers)
	if err != nil {
		return nil, err
	}
	result.Users = len(users)
	if len(users) == 0 {
		return result, nil
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.faker.Number(0, len(users)-1)]
		post, err := f.CreatePost(ctx, author)
		if err != nil {
			return nil, err
		}
		result.Posts++
		if post.Poll != nil {
			result.Polls++
			votes, err := f.Vote(ctx, post, users)
			if err != nil {
				return nil, err
			}
			result.Votes += votes
		}
		reactions, err := f.React(ctx, post, users)
		if err != nil {
			return nil, err
		}
		result.Reactions += reactions
	}

	log.Info("Demo content seeded",
		slog.Int("users", result.Users),
		slog.Int("posts", result.Posts),
		slog.Int("polls", result.Polls),
		slog.Int("reactions", result.Reactions),
		slog.Int("votes", result.Votes))
	return result, nil
}

// Clean removes all users and the content hanging off them. Teams, drivers
// and the race-weekend flag are kept.
func Clean(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{
			&models.PollVote{},
			&models.PollOption{},
			&models.Poll{},
			&models.Reaction{},
			&models.Post{},
			&models.User{},
		} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("clean %T: %w", model, err)
			}
		}
		return nil
	})
}
