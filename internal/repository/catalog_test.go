package repository

import (
	"context"
	"testing"

	"paddock/internal/models"
	"paddock/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	mclaren := testutil.CreateTeam(t, db, "McLaren", "#FF8000", "Oscar Piastri", "Lando Norris")
	testutil.CreateTeam(t, db, "Ferrari", "#DC0000", "Charles Leclerc")

	teams, err := repo.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Ferrari", teams[0].Name)

	drivers, err := repo.ListDrivers(ctx, &mclaren.ID)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "Lando Norris", drivers[0].Name)
	assert.Equal(t, "Oscar Piastri", drivers[1].Name)

	all, err := repo.ListDrivers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	missing := uint(999)
	none, err := repo.ListDrivers(ctx, &missing)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	driver, err := repo.GetDriver(ctx, mclaren.Drivers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, mclaren.ID, driver.TeamID)

	_, err = repo.GetTeam(ctx, 999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestCatalogRepository_EmptyGridListsAreEmpty(t *testing.T) {
	repo := NewCatalogRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	teams, err := repo.ListTeams(ctx)
	require.NoError(t, err)
	assert.NotNil(t, teams)
	assert.Empty(t, teams)

	drivers, err := repo.ListDrivers(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, drivers)
	assert.Empty(t, drivers)
}

func TestCatalogRepository_DeletingTeamCascadesDrivers(t *testing.T) {
	db := testutil.NewTestDB(t)
	team := testutil.CreateTeam(t, db, "Williams", "#005AFF", "Alex Albon")

	require.NoError(t, db.Delete(&models.Team{}, team.ID).Error)

	var count int64
	require.NoError(t, db.Model(&models.Driver{}).Count(&count).Error)
	assert.Zero(t, count)
}
