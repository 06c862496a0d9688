package seed

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"paddock/internal/cache"
	"paddock/internal/database"
	"paddock/internal/models"
	"paddock/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed grid.yml
var defaultGrid []byte

// GridTeam is one constructor entry in a grid file.
type GridTeam struct {
	Name    string   `yaml:"name"`
	Color   string   `yaml:"color"`
	Drivers []string `yaml:"drivers"`
}

// Grid is the team and driver reference data loaded by SeedGrid.
type Grid struct {
	Teams []GridTeam `yaml:"teams"`
}

// DefaultGrid returns the embedded grid.
func DefaultGrid() (*Grid, error) {
	return ParseGrid(defaultGrid)
}

// ParseGrid decodes and validates a grid document.
func ParseGrid(data []byte) (*Grid, error) {
	var grid Grid
	if err := yaml.Unmarshal(data, &grid); err != nil {
		return nil, fmt.Errorf("decode grid: %w", err)
	}

	seen := make(map[string]bool, len(grid.Teams))
	for i := range grid.Teams {
		team := &grid.Teams[i]
		team.Name = strings.TrimSpace(team.Name)
		if team.Name == "" {
			return nil, fmt.Errorf("grid team %d: name is required", i+1)
		}
		if seen[team.Name] {
			return nil, fmt.Errorf("grid team %q listed twice", team.Name)
		}
		seen[team.Name] = true
		if err := validation.ValidateHexColor(team.Color); err != nil {
			return nil, fmt.Errorf("grid team %q: %w", team.Name, err)
		}
	}
	return &grid, nil
}

// GridResult counts what SeedGrid touched.
type GridResult struct {
	Teams          int
	DriversCreated int
}

// SeedGrid upserts the grid's teams by name and adds any missing drivers.
// Drivers are never removed, so posts tagged with a retired driver keep
// their tag. The race-weekend row is created if it is missing and cached
// team and driver lists are dropped.
func SeedGrid(ctx context.Context, db *gorm.DB, grid *Grid) (*GridResult, error) {
	result := &GridResult{}
	for _, item := range grid.Teams {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"color"}),
			}).Create(&models.Team{Name: item.Name, Color: item.Color}).Error; err != nil {
				return err
			}

			// The upsert's returned ID is unreliable on the update path.
			var team models.Team
			if err := tx.Where("name = ?", item.Name).First(&team).Error; err != nil {
				return err
			}

			for _, name := range item.Drivers {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				var existing int64
				if err := tx.Model(&models.Driver{}).
					Where("team_id = ? AND name = ?", team.ID, name).
					Count(&existing).Error; err != nil {
					return err
				}
				if existing > 0 {
					continue
				}
				if err := tx.Create(&models.Driver{Name: name, TeamID: team.ID}).Error; err != nil {
					return err
				}
				result.DriversCreated++
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("seed team %q: %w", item.Name, err)
		}
		result.Teams++
	}

	if err := database.EnsureRaceWeekend(ctx, db); err != nil {
		return nil, err
	}
	cache.InvalidateCatalog(ctx)
	return result, nil
}
