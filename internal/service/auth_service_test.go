package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"paddock/internal/cache"
	"paddock/internal/config"
	"paddock/internal/models"
	"paddock/internal/repository"
	"paddock/internal/testutil"
	"paddock/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-that-is-at-least-32-characters"

func newTestAuthService(t *testing.T) (*AuthService, *models.User) {
	t.Helper()
	db := testutil.NewTestDB(t)
	_, rdb := testutil.NewTestRedis(t)
	user := testutil.CreateUser(t, db, "valtteri")
	svc := NewAuthService(repository.NewUserRepository(db), &config.Config{JWTSecret: testJWTSecret, SessionTTLHours: 24}, rdb)
	svc.bcryptCost = bcrypt.MinCost
	return svc, user
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validation.RegisterForm{
		Username:  "  zhou ",
		Email:     "Zhou@Example.com",
		Password1: "Shanghai-2024",
		Password2: "Shanghai-2024",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "zhou", user.Username)
	assert.Equal(t, "zhou@example.com", user.Email)
	assert.NotEqual(t, "Shanghai-2024", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Shanghai-2024")))

	_, err = svc.Register(ctx, validation.RegisterForm{
		Username:  "valtteri",
		Email:     "another@example.com",
		Password1: "Shanghai-2024",
		Password2: "Shanghai-2024",
	})
	fields := assertValidationError(t, err)
	assert.Contains(t, fields, "username")

	_, err = svc.Register(ctx, validation.RegisterForm{
		Username:  "nico",
		Email:     "nico@example.com",
		Password1: "Shanghai-2024",
		Password2: "Shanghai-2025",
	})
	fields = assertValidationError(t, err)
	assert.Contains(t, fields, "password2")
}

func TestAuthService_Login(t *testing.T) {
	svc, user := newTestAuthService(t)
	ctx := context.Background()

	got, err := svc.Login(ctx, "valtteri", testutil.TestPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	for _, tc := range []struct{ username, password string }{
		{"valtteri", "wrong-password"},
		{"ghost", testutil.TestPassword},
		{"", ""},
	} {
		_, err := svc.Login(ctx, tc.username, tc.password)
		assert.True(t, models.HasCode(err, models.CodeUnauthorized), "login %q", tc.username)
	}
}

func TestAuthService_SessionRoundTrip(t *testing.T) {
	svc, user := newTestAuthService(t)
	ctx := context.Background()

	token, expires, err := svc.IssueSession(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expires, time.Minute)

	session, err := svc.VerifySession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "valtteri", session.Username)
	assert.NotEmpty(t, session.JTI)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.VerifySession(ctx, token)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))

	exists, err := svc.rdb.Exists(ctx, cache.BlacklistKey(session.JTI)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
	ttl := svc.rdb.TTL(ctx, cache.BlacklistKey(session.JTI)).Val()
	assert.True(t, ttl > 23*time.Hour && ttl <= 24*time.Hour, "ttl %s", ttl)
}

func TestAuthService_RejectsForeignTokens(t *testing.T) {
	svc, user := newTestAuthService(t)
	ctx := context.Background()

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    SessionIssuer,
			Audience:  jwt.ClaimStrings{SessionAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := base()
	wrongAudience.Audience = jwt.ClaimStrings{"mobile"}
	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tokens := map[string]string{
		"wrong secret":   sign(base(), jwt.SigningMethodHS256, []byte(strings.Repeat("x", 40))),
		"wrong issuer":   sign(wrongIssuer, jwt.SigningMethodHS256, []byte(testJWTSecret)),
		"wrong audience": sign(wrongAudience, jwt.SigningMethodHS256, []byte(testJWTSecret)),
		"expired":        sign(expired, jwt.SigningMethodHS256, []byte(testJWTSecret)),
		"none alg":       sign(base(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"garbage":        "not.a.token",
	}
	for name, token := range tokens {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifySession(ctx, token)
			assert.True(t, models.HasCode(err, models.CodeUnauthorized))
		})
	}

	valid, _, err := svc.IssueSession(user)
	require.NoError(t, err)
	_, err = svc.VerifySession(ctx, valid)
	assert.NoError(t, err)
}

func TestAuthService_WithoutRedisSkipsRevocation(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "kevin")
	svc := NewAuthService(repository.NewUserRepository(db), &config.Config{JWTSecret: testJWTSecret}, nil)

	token, _, err := svc.IssueSession(user)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), token))
	_, err = svc.VerifySession(context.Background(), token)
	assert.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, svc.ttl)
}
