package service

import (
	"context"

	"paddock/internal/cache"
	"paddock/internal/models"
	"paddock/internal/notifications"
	"paddock/internal/repository"
)

// CatalogService serves the team/driver reference data and the race-weekend flag.
type CatalogService struct {
	catalogRepo repository.CatalogRepository
	raceRepo    repository.RaceWeekendRepository
	publisher   FeedPublisher
}

func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	raceRepo repository.RaceWeekendRepository,
	publisher FeedPublisher,
) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		raceRepo:    raceRepo,
		publisher:   publisher,
	}
}

// Drivers returns the drivers of teamID, or every driver when teamID is nil.
// An unknown team yields an empty list.
func (s *CatalogService) Drivers(ctx context.Context, teamID *uint) ([]models.DriverOption, error) {
	drivers := []models.DriverOption{}
	err := cache.Aside(ctx, cache.DriversKey(teamID), &drivers, cache.DriversTTL, func() error {
		var fetchErr error
		drivers, fetchErr = s.catalogRepo.ListDrivers(ctx, teamID)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

func (s *CatalogService) Teams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := cache.Aside(ctx, cache.TeamsKey, &teams, cache.TeamsTTL, func() error {
		var fetchErr error
		teams, fetchErr = s.catalogRepo.ListTeams(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// RaceWeekend reports whether the race-weekend banner is on.
func (s *CatalogService) RaceWeekend(ctx context.Context) (bool, error) {
	var rw models.RaceWeekend
	err := cache.Aside(ctx, cache.RaceWeekendKey, &rw, cache.RaceWeekendTTL, func() error {
		row, fetchErr := s.raceRepo.Get(ctx)
		if fetchErr != nil {
			return fetchErr
		}
		rw = *row
		return nil
	})
	if err != nil {
		return false, err
	}
	return rw.IsActive, nil
}

func (s *CatalogService) SetRaceWeekend(ctx context.Context, active bool) (*models.RaceWeekend, error) {
	rw, err := s.raceRepo.SetActive(ctx, active)
	if err != nil {
		return nil, err
	}
	cache.InvalidateRaceWeekend(ctx)
	publishFeedEvent(ctx, s.publisher, notifications.FeedEvent{
		Type:    notifications.EventRaceWeekendChanged,
		Payload: map[string]any{"is_active": rw.IsActive},
	})
	return rw, nil
}

// ValidateTags checks that the referenced team and driver exist and, when
// both are given, that the driver races for the team.
func (s *CatalogService) ValidateTags(ctx context.Context, teamID, driverID *uint) (map[string]string, error) {
	fields := map[string]string{}
	if teamID != nil {
		if _, err := s.catalogRepo.GetTeam(ctx, *teamID); err != nil {
			if !models.HasCode(err, models.CodeNotFound) {
				return nil, err
			}
			fields["team"] = "Select a valid choice. That choice is not one of the available choices."
		}
	}
	if driverID != nil {
		driver, err := s.catalogRepo.GetDriver(ctx, *driverID)
		switch {
		case err != nil && !models.HasCode(err, models.CodeNotFound):
			return nil, err
		case err != nil:
			fields["driver"] = "Select a valid choice. That choice is not one of the available choices."
		case teamID != nil && driver.TeamID != *teamID && fields["team"] == "":
			fields["driver"] = "This driver does not race for the selected team."
		}
	}
	return fields, nil
}
