package routing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unimap/unimap/models"
)

// Coordinate is a WGS84 position.
type Coordinate struct {
	Lat float64
	Lng float64
}

// ParseCoordinate parses a "latitude,longitude" decimal pair.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("%w %q: expected \"lat,lng\"", ErrInvalidCoordinate, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w %q: latitude is not a number", ErrInvalidCoordinate, s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w %q: longitude is not a number", ErrInvalidCoordinate, s)
	}
	if !models.ValidLatitude(lat) || !models.ValidLongitude(lng) {
		return Coordinate{}, fmt.Errorf("%w %q: out of range", ErrInvalidCoordinate, s)
	}
	return Coordinate{Lat: lat, Lng: lng}, nil
}

// LngLat returns the position in provider (GeoJSON) order.
func (c Coordinate) LngLat() [2]float64 {
	return [2]float64{c.Lng, c.Lat}
}
