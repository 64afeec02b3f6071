package geo

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = 24 * time.Hour
	keyPrefix       = "waterdist:geo"
)

// redisClient is the subset of go-redis used by the cache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type cachedLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type cachedRoute struct {
	Meters  int `json:"meters"`
	Seconds int `json:"seconds"`
}

// RedisGeoCache memoises geocodes and routes. Failed lookups are not cached,
// and a broken cache only costs an extra upstream call.
type RedisGeoCache struct {
	next ports.GeoService
	rdb  redisClient
	ttl  time.Duration
	log  *zap.SugaredLogger
}

func NewRedisGeoCache(next ports.GeoService, rdb redisClient, ttl time.Duration, log *zap.SugaredLogger) *RedisGeoCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisGeoCache{next: next, rdb: rdb, ttl: ttl, log: log.With("component", "geo_cache")}
}

func (c *RedisGeoCache) Geocode(ctx context.Context, address string) (kernel.Location, error) {
	key := geocodeKey(address)

	var hit cachedLocation
	if c.load(ctx, key, &hit) {
		if loc, err := kernel.NewLocation(hit.Lat, hit.Lng); err == nil {
			return loc, nil
		}
	}

	loc, err := c.next.Geocode(ctx, address)
	if err != nil {
		return kernel.Location{}, err
	}
	c.store(ctx, key, cachedLocation{Lat: loc.Lat(), Lng: loc.Lng()})
	return loc, nil
}

func (c *RedisGeoCache) Distance(ctx context.Context, origin, destination kernel.Location) (kernel.Route, error) {
	key := keyPrefix + ":route:" + latLng(origin) + ":" + latLng(destination)

	var hit cachedRoute
	if c.load(ctx, key, &hit) {
		if route, err := kernel.NewRoute(hit.Meters, hit.Seconds); err == nil {
			return route, nil
		}
	}

	route, err := c.next.Distance(ctx, origin, destination)
	if err != nil {
		return kernel.Route{}, err
	}
	c.store(ctx, key, cachedRoute{Meters: route.Meters(), Seconds: int(route.Duration() / time.Second)})
	return route, nil
}

func (c *RedisGeoCache) load(ctx context.Context, key string, dest any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.Warnw("geo_cache_read_failed", "key", key, "error", err)
		return false
	}
	if err = json.Unmarshal(raw, dest); err != nil {
		c.log.Warnw("geo_cache_entry_corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *RedisGeoCache) store(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err = c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warnw("geo_cache_write_failed", "key", key, "error", err)
	}
}

func geocodeKey(address string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(address)), " ")
	sum := sha1.Sum([]byte(normalized))
	return keyPrefix + ":geocode:" + hex.EncodeToString(sum[:])
}
