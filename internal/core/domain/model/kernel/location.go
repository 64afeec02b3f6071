package kernel

import (
	"errors"
	"strconv"

	"waterdist/internal/pkg/errs"
	"waterdist/internal/pkg/guard"
)

const (
	// LatitudeMin is the southernmost valid latitude in degrees.
	LatitudeMin = -90.0
	// LatitudeMax is the northernmost valid latitude in degrees.
	LatitudeMax = 90.0
	// LongitudeMin is the westernmost valid longitude in degrees.
	LongitudeMin = -180.0
	// LongitudeMax is the easternmost valid longitude in degrees.
	LongitudeMax = 180.0
)

// ErrLocationIsNotConstructed is returned when a Location was not created via NewLocation.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// Location is an immutable WGS84 coordinate pair. Orders carry one once their
// address has been geocoded; distributors always carry one.
//
// The zero value is invalid and fails Validate.
//
// Example:
//
//	loc, err := kernel.NewLocation(-26.2041, 28.0473)
//	if err != nil {
//	    // coordinates out of range
//	}
//	fmt.Println(loc) // -26.204100,28.047300
type Location struct { //nolint:recvcheck // pointer receivers only for private setters
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewLocation validates lat/lng against their degree ranges and returns a Location.
func NewLocation(lat, lng float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLat(lat), loc.setLng(lng)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// Validate reports whether the location was built by NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Lat returns the latitude in degrees.
func (l Location) Lat() float64 {
	return l.lat
}

// Lng returns the longitude in degrees.
func (l Location) Lng() float64 {
	return l.lng
}

// String renders the location as "lat,lng", the form accepted by most geo APIs.
func (l Location) String() string {
	return strconv.FormatFloat(l.lat, 'f', 6, 64) + "," + strconv.FormatFloat(l.lng, 'f', 6, 64)
}

// IsEqual compares two constructed locations.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l.lat == other.lat && l.lng == other.lng, nil
}

func (l *Location) setLat(lat float64) error {
	if lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", lat, LatitudeMin, LatitudeMax)
	}
	l.lat = lat
	return nil
}

func (l *Location) setLng(lng float64) error {
	if lng < LongitudeMin || lng > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", lng, LongitudeMin, LongitudeMax)
	}
	l.lng = lng
	return nil
}

