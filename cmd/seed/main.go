// Command seed loads the team grid and generates demo content.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"paddock/internal/cache"
	"paddock/internal/config"
	"paddock/internal/database"
	"paddock/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of demo users to create")
	numPosts := flag.Int("posts", 150, "Number of demo posts to create")
	shouldClean := flag.Bool("clean", false, "Delete users and their content before seeding")
	gridOnly := flag.Bool("grid-only", false, "Only upsert teams and drivers")
	gridFile := flag.String("grid", "", "YAML grid file to load instead of the built-in grid")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible content (0 uses the clock)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Connected so the seeded grid replaces any cached team and driver lists.
	cache.InitRedis(cfg.RedisURL)

	grid, err := loadGrid(*gridFile)
	if err != nil {
		log.Fatalf("❌ Grid file invalid: %v", err)
	}
	if *gridOnly {
		res, err := seed.SeedGrid(ctx, db, grid)
		if err != nil {
			log.Fatalf("❌ Grid seeding failed: %v", err)
		}
		log.Printf("🏁 Grid: %d teams, %d new drivers", res.Teams, res.DriversCreated)
		return
	}

	log.Printf("Target: %d users, %d posts, clean=%v", *numUsers, *numPosts, *shouldClean)
	out, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		RandSeed:    *randSeed,
		Grid:        grid,
	})
	if err != nil {
		log.Fatalf("❌ Demo seeding failed: %v", err)
	}

	log.Printf("🏁 Grid: %d teams, %d new drivers", out.Grid.Teams, out.Grid.DriversCreated)
	log.Printf("✨ Created %d users, %d posts (%d polls), %d reactions, %d votes",
		out.Users, out.Posts, out.Polls, out.Reactions, out.Votes)
	log.Printf("📧 All demo users have the password: %s", seed.DemoPassword)
}

func loadGrid(path string) (*seed.Grid, error) {
	if path == "" {
		return seed.DefaultGrid()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.ParseGrid(data)
}
