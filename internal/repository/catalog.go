package repository

import (
	"context"

	"paddock/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository reads the team and driver reference data.
type CatalogRepository interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListDrivers(ctx context.Context, teamID *uint) ([]models.DriverOption, error)
	GetTeam(ctx context.Context, id uint) (*models.Team, error)
	GetDriver(ctx context.Context, id uint) (*models.Driver, error)
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository returns a new CatalogRepository implementation.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams := []models.Team{}
	if err := readDB(r.db).WithContext(ctx).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return teams, nil
}

// ListDrivers returns id/name pairs ordered by name, limited to teamID when given.
func (r *catalogRepository) ListDrivers(ctx context.Context, teamID *uint) ([]models.DriverOption, error) {
	drivers := []models.DriverOption{}
	q := readDB(r.db).WithContext(ctx).Model(&models.Driver{}).Select("id, name")
	if teamID != nil {
		q = q.Where("team_id = ?", *teamID)
	}
	if err := q.Order("name ASC").Order("id ASC").Scan(&drivers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return drivers, nil
}

func (r *catalogRepository) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := readDB(r.db).WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, notFoundOr(err, "Team", id)
	}
	return &team, nil
}

func (r *catalogRepository) GetDriver(ctx context.Context, id uint) (*models.Driver, error) {
	var driver models.Driver
	if err := readDB(r.db).WithContext(ctx).First(&driver, id).Error; err != nil {
		return nil, notFoundOr(err, "Driver", id)
	}
	return &driver, nil
}
