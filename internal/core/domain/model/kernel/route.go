package kernel

import (
	"time"

	"waterdist/internal/pkg/errs"
)

// Route is a measured travel path between two locations.
type Route struct {
	meters  int
	seconds int

	isConstructed bool
}

// NewRoute creates a Route from a distance in meters and a travel time in seconds.
func NewRoute(meters, seconds int) (Route, error) {
	if meters < 0 {
		return Route{}, errs.NewValueIsOutOfRangeError("meters", meters, 0, "+inf")
	}
	if seconds < 0 {
		return Route{}, errs.NewValueIsOutOfRangeError("seconds", seconds, 0, "+inf")
	}
	return Route{meters: meters, seconds: seconds, isConstructed: true}, nil
}

// Validate ensures the route was created via NewRoute.
func (r Route) Validate() error {
	if !r.isConstructed {
		return errs.NewValueIsRequiredError("route")
	}
	return nil
}

func (r Route) Meters() int { return r.meters }

func (r Route) Duration() time.Duration { return time.Duration(r.seconds) * time.Second }

// Kilometers returns the distance in km.
func (r Route) Kilometers() float64 {
	return float64(r.meters) / 1000
}
