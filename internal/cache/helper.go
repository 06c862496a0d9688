package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"paddock/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// GetJSON loads key into dest. It returns redis.Nil on a miss and an error
// when no client is configured.
func GetJSON(ctx context.Context, key string, dest any) error {
	if client == nil {
		return errors.New("cache unavailable")
	}
	raw, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON stores value under key with the given TTL. A nil client is a no-op.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Aside reads key into dest, or on a miss runs load (which fills dest) and
// writes the result back. Cache failures never fail the caller.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	err := GetJSON(ctx, key, dest)
	if err == nil {
		return nil
	}
	if client != nil && !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := load(); err != nil {
		return err
	}

	if err := SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}
