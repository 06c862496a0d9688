package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"paddock/internal/cache"
	"paddock/internal/config"
	"paddock/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, redisAddr string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBPath:       filepath.Join(t.TempDir(), "paddock.db"),
		DBSchemaMode: "hybrid",
		RedisURL:     redisAddr,
	}
}

func TestInitRuntime_SeedsGridAndDemo(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { cache.SetClient(nil) })

	ctx := context.Background()
	cfg := sqliteConfig(t, mr.Addr())

	db, rdb, err := InitRuntime(ctx, cfg, Options{SeedGrid: true, SeedDemo: true})
	require.NoError(t, err)
	require.NotNil(t, rdb)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	var teams, users, posts int64
	db.Model(&models.Team{}).Count(&teams)
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Post{}).Count(&posts)
	assert.Equal(t, int64(10), teams)
	assert.Equal(t, int64(12), users)
	assert.Equal(t, int64(60), posts)

	var rw models.RaceWeekend
	require.NoError(t, db.First(&rw, models.RaceWeekendID).Error)
	assert.False(t, rw.IsActive)

	// A second start leaves existing demo content alone.
	require.NoError(t, sqlDB.Close())
	db, _, err = InitRuntime(ctx, cfg, Options{SeedGrid: true, SeedDemo: true})
	require.NoError(t, err)
	sqlDB, _ = db.DB()
	db.Model(&models.User{}).Count(&users)
	assert.Equal(t, int64(12), users)
}

func TestInitRuntime_WithoutRedis(t *testing.T) {
	t.Cleanup(func() { cache.SetClient(nil) })
	cfg := sqliteConfig(t, "127.0.0.1:1")

	db, rdb, err := InitRuntime(context.Background(), cfg, Options{})
	require.NoError(t, err)
	assert.Nil(t, rdb)
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	var teams int64
	db.Model(&models.Team{}).Count(&teams)
	assert.Zero(t, teams)
}

func TestInitRuntime_RejectsUnknownSchemaMode(t *testing.T) {
	cfg := sqliteConfig(t, "127.0.0.1:1")
	cfg.DBSchemaMode = "yolo"
	_, _, err := InitRuntime(context.Background(), cfg, Options{})
	assert.Error(t, err)
}
