package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"paddock/internal/cache"
	"paddock/internal/config"
	"paddock/internal/middleware"
	"paddock/internal/models"
	"paddock/internal/repository"
	"paddock/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	SessionIssuer   = "paddock-api"
	SessionAudience = "paddock-web"
)

var errInvalidCredentials = models.NewUnauthorizedError(
	"Please enter a correct username and password. Note that both fields may be case-sensitive.")

// Session is a verified session token.
type Session struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo   repository.UserRepository
	rdb        *redis.Client
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config, rdb *redis.Client) *AuthService {
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		rdb:        rdb,
		secret:     []byte(cfg.JWTSecret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Register validates the form and creates the user.
func (s *AuthService) Register(ctx context.Context, form validation.RegisterForm) (*models.User, error) {
	if err := validation.ValidateRegistration(&form).Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Login checks the credentials. Unknown users and wrong passwords get the
// same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, errInvalidCredentials
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

// IssueSession signs a session token for user.
func (s *AuthService) IssueSession(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    SessionIssuer,
			Audience:  jwt.ClaimStrings{SessionAudience},
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (s *AuthService) parse(tokenString string) (*Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(SessionIssuer),
		jwt.WithAudience(SessionAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired session")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid session subject")
	}
	session := &Session{
		UserID:   uint(userID),
		Username: claims.Username,
		JTI:      claims.ID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// VerifySession validates the token and rejects revoked sessions. Without
// Redis, revocation is not checked.
func (s *AuthService) VerifySession(ctx context.Context, tokenString string) (*Session, error) {
	session, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if session.JTI != "" && s.rdb != nil {
		revoked, err := s.rdb.Exists(ctx, cache.BlacklistKey(session.JTI)).Result()
		if err != nil {
			middleware.Logger.WarnContext(ctx, "session revocation check failed", slog.String("error", err.Error()))
		} else if revoked > 0 {
			return nil, models.NewUnauthorizedError("Session has been revoked")
		}
	}
	return session, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	session, err := s.parse(tokenString)
	if err != nil {
		// Nothing to revoke.
		return nil
	}
	if session.JTI == "" || s.rdb == nil {
		return nil
	}

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, cache.BlacklistKey(session.JTI), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
