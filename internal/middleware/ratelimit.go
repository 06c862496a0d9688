package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot count it.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// RateLimitEnabled switches the Redis limiter on. The server sets it from
// RATE_LIMIT_ENABLED; package tests leave it off.
var RateLimitEnabled = false

var errNoRedis = errors.New("redis client is nil")

func rateLimitKey(resource, id string) string {
	return fmt.Sprintf("rl:%s:%s", resource, id)
}

// hit counts one request in the fixed window at key and returns the new
// count and the time left in the window.
func hit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return incr.Val(), ttl.Val(), nil
}

// CheckRateLimit increments the fixed-window counter for resource/id and
// reports whether the request is still within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if !RateLimitEnabled {
		return true, nil
	}
	if rdb == nil {
		return false, errNoRedis
	}
	count, _, err := hit(ctx, rdb, rateLimitKey(resource, id), window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

// RateLimit limits a route to limit requests per window for each signed-in
// user, or each client IP for anonymous requests. Redis failures fail open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit failure policy. Rejected
// requests get 429 with a Retry-After header.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !RateLimitEnabled {
			return c.Next()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}
		id := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		}

		var (
			count int64
			left  time.Duration
			err   = errNoRedis
		)
		if rdb != nil {
			count, left, err = hit(c.UserContext(), rdb, rateLimitKey(resource, id), window)
		}
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
				slog.String("resource", resource), slog.String("error", err.Error()))
			if policy == FailClosed {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "rate limit unavailable"})
			}
			return c.Next()
		}

		if count > int64(limit) {
			if left <= 0 {
				left = window
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(left.Round(time.Second)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
