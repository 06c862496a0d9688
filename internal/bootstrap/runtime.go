// Package bootstrap wires the database, cache and seed data shared by the
// commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"paddock/internal/cache"
	"paddock/internal/config"
	"paddock/internal/database"
	"paddock/internal/middleware"
	"paddock/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedGrid upserts the embedded team and driver grid.
	SeedGrid bool
	// SeedDemo also generates demo users and posts on an empty database.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis, applies the schema and optionally
// seeds. The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return nil, nil, fmt.Errorf("apply schema: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedGrid {
		grid, err := seed.DefaultGrid()
		if err != nil {
			return nil, nil, err
		}
		res, err := seed.SeedGrid(ctx, db, grid)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed grid: %w", err)
		}
		middleware.Logger.Info("Grid ensured", slog.Int("teams", res.Teams), slog.Int("drivers_created", res.DriversCreated))
	}

	if opts.SeedDemo {
		if err := seedDemoIfEmpty(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo content: %w", err)
		}
	}

	return db, r, nil
}

func seedDemoIfEmpty(ctx context.Context, db *gorm.DB) error {
	var users int64
	if err := db.WithContext(ctx).Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}
	_, err := seed.Seed(ctx, db, seed.Options{NumUsers: 12, NumPosts: 60})
	return err
}
