package models

import (
	"errors"
	"math"
)

// ErrInvalidCoordinates is returned when a building has an out-of-range position.
var ErrInvalidCoordinates = errors.New("latitude must be within [-90,90] and longitude within [-180,180]")

// Building stores building information for a university.
type Building struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null" json:"name"`
	Latitude    float64 `gorm:"not null" json:"latitude"`
	Longitude   float64 `gorm:"not null" json:"longitude"`
	Category    string  `gorm:"size:50" json:"category"`
	Description string  `gorm:"type:text" json:"description"`
	Photo       string  `gorm:"size:512" json:"photo"`
	Icon        string  `gorm:"size:512" json:"icon"`
	// Nullable for rows created before universities existed.
	UniversityID *uint `gorm:"index" json:"university"`
}

// Validate checks the coordinate invariant.
func (b *Building) Validate() error {
	if !ValidLatitude(b.Latitude) || !ValidLongitude(b.Longitude) {
		return ErrInvalidCoordinates
	}
	return nil
}

// ValidLatitude reports whether v is a finite latitude.
func ValidLatitude(v float64) bool {
	return !math.IsNaN(v) && v >= -90 && v <= 90
}

// ValidLongitude reports whether v is a finite longitude.
func ValidLongitude(v float64) bool {
	return !math.IsNaN(v) && v >= -180 && v <= 180
}
