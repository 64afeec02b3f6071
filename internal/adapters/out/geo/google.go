// Package geo implements ports.GeoService on top of the Google Maps
// Geocoding and Distance Matrix APIs, with an optional Redis cache in front.
//
// Every failure, including "no result", is returned as an
// errs.UpstreamUnavailableError so callers can treat it as "no answer".
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/ports"
	"waterdist/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
)

const (
	geocoderService = "geocoder"
	distanceService = "distance"
)

var (
	ErrNoGeocodeResult = errors.New("no geocoding result")
	ErrNoRoute         = errors.New("no route between origin and destination")
	ErrGeoDisabled     = errors.New("geo service disabled: no API key configured")
)

// Config selects and tunes the geo service.
type Config struct {
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the Maps endpoint, used by tests.
	BaseURL           string        `mapstructure:"base_url"`
	Region            string        `mapstructure:"region"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// GoogleMapsService is the production GeoService.
type GoogleMapsService struct {
	client *maps.Client
	region string
	log    *zap.SugaredLogger
}

func NewGoogleMapsService(cfg Config, log *zap.SugaredLogger) (*GoogleMapsService, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, maps.WithRateLimit(cfg.RequestsPerSecond))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}

	return &GoogleMapsService{
		client: client,
		region: strings.ToLower(strings.TrimSpace(cfg.Region)),
		log:    log.With("component", "geo"),
	}, nil
}

func (s *GoogleMapsService) Geocode(ctx context.Context, address string) (kernel.Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return kernel.Location{}, errs.NewValueIsRequiredError("address")
	}

	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: address, Region: s.region})
	if err != nil {
		return kernel.Location{}, errs.NewUpstreamUnavailableErrorWithCause(geocoderService, err)
	}
	if len(results) == 0 {
		return kernel.Location{}, errs.NewUpstreamUnavailableErrorWithCause(geocoderService,
			fmt.Errorf("%w for %q", ErrNoGeocodeResult, address))
	}

	point := results[0].Geometry.Location
	loc, err := kernel.NewLocation(point.Lat, point.Lng)
	if err != nil {
		return kernel.Location{}, errs.NewUpstreamUnavailableErrorWithCause(geocoderService, err)
	}

	s.log.Debugw("address_geocoded", "address", address, "location", loc.String())
	return loc, nil
}

func (s *GoogleMapsService) Distance(ctx context.Context, origin, destination kernel.Location) (kernel.Route, error) {
	resp, err := s.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(origin)},
		Destinations: []string{latLng(destination)},
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		return kernel.Route{}, errs.NewUpstreamUnavailableErrorWithCause(distanceService, err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return kernel.Route{}, errs.NewUpstreamUnavailableErrorWithCause(distanceService, ErrNoRoute)
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return kernel.Route{}, errs.NewUpstreamUnavailableErrorWithCause(distanceService,
			fmt.Errorf("%w: element status %s", ErrNoRoute, element.Status))
	}

	route, err := kernel.NewRoute(element.Distance.Meters, int(element.Duration/time.Second))
	if err != nil {
		return kernel.Route{}, errs.NewUpstreamUnavailableErrorWithCause(distanceService, err)
	}
	return route, nil
}

func latLng(l kernel.Location) string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat(), l.Lng())
}

// DisabledService answers every call with an upstream failure. It is used
// when no API key is configured: orders stay new and wait for an operator.
type DisabledService struct{}

func (DisabledService) Geocode(context.Context, string) (kernel.Location, error) {
	return kernel.Location{}, errs.NewUpstreamUnavailableErrorWithCause(geocoderService, ErrGeoDisabled)
}

func (DisabledService) Distance(context.Context, kernel.Location, kernel.Location) (kernel.Route, error) {
	return kernel.Route{}, errs.NewUpstreamUnavailableErrorWithCause(distanceService, ErrGeoDisabled)
}

// New builds the configured GeoService. rdb may be nil to disable caching.
func New(cfg Config, rdb *redis.Client, log *zap.SugaredLogger) (ports.GeoService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Warnw("geo_service_disabled", "reason", "missing api key")
		return DisabledService{}, nil
	}

	svc, err := NewGoogleMapsService(cfg, log)
	if err != nil {
		return nil, err
	}
	if rdb == nil {
		return svc, nil
	}
	return NewRedisGeoCache(svc, rdb, cfg.CacheTTL, log), nil
}
