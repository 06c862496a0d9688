package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"paddock/internal/config"
	"paddock/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		dialect  string
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"Hybrid Dev Postgres", "hybrid", "development", DriverPostgres, true, true, false},
		{"Hybrid Prod Postgres", "hybrid", "production", DriverPostgres, true, false, false},
		{"Empty Mode Is Hybrid", "", "development", DriverPostgres, true, true, false},
		{"SQL Only", "sql", "development", DriverPostgres, true, false, false},
		{"Auto Dev", "auto", "development", DriverPostgres, false, true, false},
		{"Auto Prod Refused", "auto", "production", DriverPostgres, false, false, true},
		{"SQLite Always Auto", "sql", "development", DriverSQLite, false, true, false},
		{"Unknown Mode", "magic", "development", DriverPostgres, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{DBSchemaMode: tt.mode, Env: tt.env}
			runSQL, runAuto, err := schemaPolicy(cfg, tt.dialect)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchema_SQLiteCreatesRaceWeekendOnce(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{Env: "test", DBSchemaMode: SchemaModeHybrid}
	ctx := context.Background()

	require.NoError(t, ApplySchema(ctx, db, cfg))

	require.NoError(t, db.Model(&models.RaceWeekend{}).Where("id = ?", models.RaceWeekendID).
		Update("is_active", true).Error)

	// A second run must not reset the flag.
	require.NoError(t, ApplySchema(ctx, db, cfg))

	var rows []models.RaceWeekend
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.RaceWeekendID, rows[0].ID)
	assert.True(t, rows[0].IsActive)
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = configurePool(db, &config.Config{DBMaxOpenConns: 10, DBMaxIdleConns: 5, DBConnMaxLifetimeMinutes: 15})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(errors.New("UNIQUE constraint failed: reactions.user_id, reactions.post_id")))
}

func TestIsUniqueViolation_SQLiteInsert(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	require.NoError(t, db.Create(&models.Team{Name: "Ferrari", Color: "#DC0000"}).Error)
	err := db.Create(&models.Team{Name: "Ferrari", Color: "#DC0000"}).Error
	assert.True(t, IsUniqueViolation(err))
}

func TestRegisteredMigrations(t *testing.T) {
	all := GetMigrations()
	require.Len(t, all, 2)
	assert.Equal(t, "000001_initial_schema", all[0].String())
	assert.Contains(t, all[1].UpScript, "race_weekends")
	assert.NotEmpty(t, all[1].DownScript)
	assert.Nil(t, GetMigrationByVersion(99))
}

func TestValidateAppliedVersions(t *testing.T) {
	assert.NoError(t, validateAppliedVersions(nil, migrations))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, migrations))
	err := validateAppliedVersions([]int{1, 7}, migrations)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestMigrationStore_ApplyAndRevert(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	store := NewMigrationStore(db)

	applied, err := store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "missing ledger reads as nothing applied")

	require.NoError(t, db.AutoMigrate(&MigrationLog{}))
	m := Migration{
		Version:    41,
		Name:       "pit_stops",
		UpScript:   "CREATE TABLE pit_stops (id INTEGER PRIMARY KEY)",
		DownScript: "DROP TABLE pit_stops",
	}
	require.NoError(t, store.ApplyMigration(ctx, m))
	assert.True(t, db.Migrator().HasTable("pit_stops"))

	applied, err = store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{41}, applied)

	require.NoError(t, store.RevertMigration(ctx, m))
	assert.False(t, db.Migrator().HasTable("pit_stops"))
	applied, err = store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestMigrationStore_FailedScriptIsNotRecorded(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, db.AutoMigrate(&MigrationLog{}))
	store := NewMigrationStore(db)

	err := store.ApplyMigration(ctx, Migration{Version: 9, Name: "broken", UpScript: "CREATE TABLE ("})
	require.Error(t, err)

	applied, err := store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestPendingMigrations(t *testing.T) {
	assert.Len(t, pendingMigrations(nil), len(migrations))
	pending := pendingMigrations([]int{1})
	require.Len(t, pending, len(migrations)-1)
	assert.NotEqual(t, 1, pending[0].Version)
}
