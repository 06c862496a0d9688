// Package main provides admin utilities for Paddock: the race-weekend
// switch, the team list and schema maintenance.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"paddock/internal/cache"
	"paddock/internal/config"
	"paddock/internal/database"
	"paddock/internal/notifications"
	"paddock/internal/repository"
	"paddock/internal/service"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin race-weekend on|off|status   - Toggle or show race-weekend mode")
	fmt.Println("  go run ./cmd/admin teams                        - List teams and drivers")
	fmt.Println("  go run ./cmd/admin schema-status                - Show schema policy and pending migrations")
	fmt.Println("  go run ./cmd/admin migrate                      - Apply the schema")
	fmt.Println("  go run ./cmd/admin rollback <version>           - Roll back one SQL migration")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "race-weekend":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		raceWeekend(ctx, cfg, db, os.Args[2])
	case "teams":
		listTeams(ctx, db)
	case "schema-status":
		schemaStatus(ctx, cfg, db)
	case "migrate":
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("✅ Schema is up to date")
	case "rollback":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		rollback(ctx, db, os.Args[2])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func catalogService(cfg *config.Config, db *gorm.DB) *service.CatalogService {
	// Redis lets the running servers drop their cached flag and hear the change.
	cache.InitRedis(cfg.RedisURL)
	return service.NewCatalogService(
		repository.NewCatalogRepository(db),
		repository.NewRaceWeekendRepository(db),
		notifications.NewNotifier(cache.GetClient()),
	)
}

func raceWeekend(ctx context.Context, cfg *config.Config, db *gorm.DB, arg string) {
	catalog := catalogService(cfg, db)

	switch arg {
	case "status":
		active, err := catalog.RaceWeekend(ctx)
		if err != nil {
			log.Fatalf("Failed to read race weekend: %v", err)
		}
		fmt.Printf("Race weekend mode is %s\n", onOff(active))
		return
	case "on", "off":
		rw, err := catalog.SetRaceWeekend(ctx, arg == "on")
		if err != nil {
			log.Fatalf("Failed to update race weekend: %v", err)
		}
		fmt.Printf("✅ Race weekend mode is now %s\n", onOff(rw.IsActive))
	default:
		fmt.Printf("Unknown race-weekend argument %q, want on, off or status\n", arg)
		os.Exit(1)
	}
}

func onOff(active bool) string {
	if active {
		return "ON"
	}
	return "OFF"
}

func listTeams(ctx context.Context, db *gorm.DB) {
	repo := repository.NewCatalogRepository(db)
	teams, err := repo.ListTeams(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch teams: %v", err)
	}
	if len(teams) == 0 {
		fmt.Println("No teams found. Run ./cmd/seed -grid-only first.")
		return
	}

	for _, team := range teams {
		drivers, err := repo.ListDrivers(ctx, &team.ID)
		if err != nil {
			log.Fatalf("Failed to fetch drivers: %v", err)
		}
		fmt.Printf("%3d  %-20s %s\n", team.ID, team.Name, team.Color)
		for _, d := range drivers {
			fmt.Printf("       %3d  %s\n", d.ID, d.Name)
		}
	}
}

func schemaStatus(ctx context.Context, cfg *config.Config, db *gorm.DB) {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		log.Fatalf("Failed to read schema status: %v", err)
	}
	fmt.Printf("Mode: %s (env %s)\n", status.Mode, status.Environment)
	fmt.Printf("SQL migrations: %v, AutoMigrate: %v\n", status.WillRunSQL, status.WillRunAutoMigrate)
	if !status.WillRunSQL {
		return
	}
	fmt.Printf("Applied versions: %v\n", status.AppliedVersions)
	if len(status.PendingMigrations) == 0 {
		fmt.Println("No pending migrations")
		return
	}
	for _, m := range status.PendingMigrations {
		fmt.Printf("Pending: %s\n", m.String())
	}
}

func rollback(ctx context.Context, db *gorm.DB, arg string) {
	version, err := strconv.Atoi(arg)
	if err != nil {
		log.Fatalf("Invalid version %q: %v", arg, err)
	}
	if database.GetMigrationByVersion(version) == nil {
		log.Fatalf("Migration %d is not registered", version)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		log.Fatalf("Rollback failed: %v", err)
	}
	fmt.Printf("✅ Rolled back migration %d\n", version)
}
