package domain

import (
	"fmt"
	"math"
)

// Location is a WGS-84 coordinate pair with an optional display name.
type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

// keyPrecision quantizes coordinates to 2 decimal places (~1.1 km) for cache
// keys. See the package documentation for the rationale.
const keyPrecision = 100.0

// Validate rejects coordinates outside the WGS-84 range. It runs before any
// cache lookup or network call.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || l.Lat < -90 || l.Lat > 90 {
		return &ValidationError{Field: "lat", Message: fmt.Sprintf("must be within [-90, 90], got %v", l.Lat)}
	}
	if math.IsNaN(l.Lng) || l.Lng < -180 || l.Lng > 180 {
		return &ValidationError{Field: "lng", Message: fmt.Sprintf("must be within [-180, 180], got %v", l.Lng)}
	}
	return nil
}

// Quantized returns the coordinates rounded to the cache-key precision.
func (l Location) Quantized() (lat, lng float64) {
	return math.Round(l.Lat*keyPrecision) / keyPrecision,
		math.Round(l.Lng*keyPrecision) / keyPrecision
}

// CacheKey builds a cache key for a data kind at this location.
func (l Location) CacheKey(kind string) string {
	lat, lng := l.Quantized()
	return fmt.Sprintf("%s:%.2f,%.2f", kind, lat, lng)
}

// ForecastCacheKey includes the requested day count, since forecasts of
// different lengths are distinct cache entries.
func (l Location) ForecastCacheKey(days int) string {
	return fmt.Sprintf("%s:d%d", l.CacheKey("forecast"), days)
}
