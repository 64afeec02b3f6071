package ports

import (
	"context"

	"waterdist/internal/core/domain/model/kernel"
)

// GeoService resolves addresses and measures travel between coordinates.
// Every failure wraps errs.ErrUpstreamUnavailable; callers treat it as "no answer".
type GeoService interface {
	Geocode(ctx context.Context, address string) (kernel.Location, error)
	Distance(ctx context.Context, origin, destination kernel.Location) (kernel.Route, error)
}
