package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	DriversByTeamKeyPrefix = "drivers:team:%d"
	AllDriversKey          = "drivers:all"
	TeamsKey               = "teams:all"
	RaceWeekendKey         = "race_weekend"
	SessionBlacklistPrefix = "blacklist:%s"
)

const (
	DriversTTL     = 10 * time.Minute
	TeamsTTL       = 10 * time.Minute
	RaceWeekendTTL = 30 * time.Second
)

// DriversKey returns the cache key for the driver list of teamID, or of every
// driver when teamID is nil.
func DriversKey(teamID *uint) string {
	if teamID == nil {
		return AllDriversKey
	}
	return fmt.Sprintf(DriversByTeamKeyPrefix, *teamID)
}

// BlacklistKey returns the key marking a session token ID as revoked.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(SessionBlacklistPrefix, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateCatalog(ctx context.Context) {
	keys := []string{TeamsKey, AllDriversKey}
	if client != nil {
		if teamKeys, err := client.Keys(ctx, "drivers:team:*").Result(); err == nil {
			keys = append(keys, teamKeys...)
		}
	}
	Invalidate(ctx, keys...)
}

func InvalidateRaceWeekend(ctx context.Context) {
	Invalidate(ctx, RaceWeekendKey)
}
