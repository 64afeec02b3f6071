package geo_test

import (
	"context"
	"testing"
	"time"

	"waterdist/internal/adapters/out/geo"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingGeo struct {
	geocodes  int
	distances int
	fail      bool
}

func (g *countingGeo) Geocode(context.Context, string) (kernel.Location, error) {
	g.geocodes++
	if g.fail {
		return kernel.Location{}, errs.NewUpstreamUnavailableError("geocoder")
	}
	return kernel.NewLocation(-33.9249, 18.4241)
}

func (g *countingGeo) Distance(context.Context, kernel.Location, kernel.Location) (kernel.Route, error) {
	g.distances++
	if g.fail {
		return kernel.Route{}, errs.NewUpstreamUnavailableError("distance")
	}
	return kernel.NewRoute(5200, 540)
}

func newCache(t *testing.T, next *countingGeo) (*geo.RedisGeoCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return geo.NewRedisGeoCache(next, rdb, time.Hour, zap.NewNop().Sugar()), mr
}

func TestRedisGeoCache_Geocode(t *testing.T) {
	ctx := t.Context()
	next := &countingGeo{}
	cache, mr := newCache(t, next)

	first, err := cache.Geocode(ctx, "12 Main Rd, Cape Town")
	require.NoError(t, err)
	second, err := cache.Geocode(ctx, "  12 MAIN Rd,   cape town ")
	require.NoError(t, err)

	assert.Equal(t, 1, next.geocodes, "normalised address hits the cache")
	assert.InDelta(t, first.Lat(), second.Lat(), 1e-9)
	assert.InDelta(t, first.Lng(), second.Lng(), 1e-9)

	mr.FastForward(2 * time.Hour)
	_, err = cache.Geocode(ctx, "12 Main Rd, Cape Town")
	require.NoError(t, err)
	assert.Equal(t, 2, next.geocodes, "expired entry is refetched")
}

func TestRedisGeoCache_Distance(t *testing.T) {
	ctx := t.Context()
	next := &countingGeo{}
	cache, _ := newCache(t, next)
	origin, err := kernel.NewLocation(-33.95, 18.45)
	require.NoError(t, err)
	dest, err := kernel.NewLocation(-33.92, 18.42)
	require.NoError(t, err)

	for range 3 {
		route, routeErr := cache.Distance(ctx, origin, dest)
		require.NoError(t, routeErr)
		assert.Equal(t, 5200, route.Meters())
		assert.Equal(t, 9*time.Minute, route.Duration())
	}
	assert.Equal(t, 1, next.distances)

	_, err = cache.Distance(ctx, dest, origin)
	require.NoError(t, err)
	assert.Equal(t, 2, next.distances, "direction is part of the key")
}

func TestRedisGeoCache_FailuresAreNotCached(t *testing.T) {
	ctx := t.Context()
	next := &countingGeo{fail: true}
	cache, _ := newCache(t, next)

	_, err := cache.Geocode(ctx, "nowhere")
	require.ErrorIs(t, err, errs.ErrUpstreamUnavailable)

	next.fail = false
	_, err = cache.Geocode(ctx, "nowhere")
	require.NoError(t, err)
	assert.Equal(t, 2, next.geocodes)
}

func TestRedisGeoCache_BrokenRedisFallsThrough(t *testing.T) {
	next := &countingGeo{}
	cache, mr := newCache(t, next)
	mr.Close()

	loc, err := cache.Geocode(t.Context(), "12 Main Rd")
	require.NoError(t, err)
	assert.InDelta(t, -33.9249, loc.Lat(), 1e-9)
}
