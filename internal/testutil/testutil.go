// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"paddock/internal/database"
	"paddock/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewTestDB opens a private in-memory SQLite database with the full schema
// and the race-weekend row. The pool is capped at one connection, so code
// under test must use the transaction handle inside transactions.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	if err := db.Create(&models.RaceWeekend{ID: models.RaceWeekendID}).Error; err != nil {
		t.Fatalf("race weekend row: %v", err)
	}
	return db
}

// NewTestRedis starts a miniredis server and returns it with a connected client.
func NewTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// TestPassword is the plain-text password of users created by CreateUser.
const TestPassword = "Monza2024!"

var testPasswordHash []byte

// CreateUser inserts a user with TestPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	if testPasswordHash == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		testPasswordHash = hash
	}
	user := &models.User{
		Username: username,
		Email:    username + "@paddock.test",
		Password: string(testPasswordHash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

// CreateTeam inserts a team and its drivers.
func CreateTeam(t testing.TB, db *gorm.DB, name, color string, drivers ...string) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, Color: color}
	for _, d := range drivers {
		team.Drivers = append(team.Drivers, models.Driver{Name: d})
	}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	return team
}

// CreatePost inserts a post with the given category.
func CreatePost(t testing.TB, db *gorm.DB, userID uint, text string, category models.Category) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Text: text, Category: category}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

// CreatePollPost inserts a poll post with the given options in order.
func CreatePollPost(t testing.TB, db *gorm.DB, userID uint, text string, options ...string) *models.Post {
	t.Helper()
	post := CreatePost(t, db, userID, text, models.CategoryPoll)
	poll := &models.Poll{PostID: post.ID}
	for i, opt := range options {
		poll.Options = append(poll.Options, models.PollOption{Text: opt, Position: i})
	}
	if err := db.Create(poll).Error; err != nil {
		t.Fatalf("create poll: %v", err)
	}
	post.Poll = poll
	return post
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 220, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
