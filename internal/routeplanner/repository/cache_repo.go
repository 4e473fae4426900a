package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	geocodeKeyPrefix = "geocode" // geocode_<md5(location)>
	routeKeyPrefix   = "route"   // route_<md5(start|end coords)>
	planKeyPrefix    = "full_route"

	GeocodeTTL = 24 * time.Hour
	RouteTTL   = time.Hour
	PlanTTL    = 30 * time.Minute
)

// CacheRepository memoizes geocoding results, computed routes and full
// responses in Redis. A nil client means caching is disabled: every read
// is a miss and writes are dropped, matching the requirement that a
// missing cache connection string must not break the application.
type CacheRepository struct {
	client *redis.Client
}

func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Enabled reports whether a cache backend is configured.
func (r *CacheRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Key builds a safe cache key by hashing the value, avoiding issues with
// spaces and special characters in location strings.
func Key(prefix, value string) string {
	sum := md5.Sum([]byte(value))
	return prefix + "_" + hex.EncodeToString(sum[:])
}

func GeocodeKey(location string) string { return Key(geocodeKeyPrefix, location) }
func RouteKey(start, end string) string { return Key(routeKeyPrefix, start+end) }
func PlanKey(start, end string) string  { return Key(planKeyPrefix, start+"|"+end) }

// GetJSON unmarshals the cached value for key into dest. The boolean
// reports whether the key was present.
func (r *CacheRepository) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value under key with the given TTL.
func (r *CacheRepository) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Ping exercises the cache with a set/get round trip, the same probe the
// health endpoint reports on.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}

	if err := r.client.Set(ctx, "health_check", 1, 10*time.Second).Err(); err != nil {
		return err
	}
	return r.client.Get(ctx, "health_check").Err()
}
