package models

import (
	"errors"
	"time"
)

// ErrPartialBounds is returned when only some of the bounding box fields are set.
var ErrPartialBounds = errors.New("bounding box requires all of min_lat, max_lat, min_lng, max_lng or none")

// ErrInvalidBounds is returned for out-of-range or inverted bounding boxes.
var ErrInvalidBounds = errors.New("bounding box is out of range or inverted")

// University is a tenant. Universities are deactivated rather than deleted.
type University struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	ShortName string    `gorm:"size:20;not null;index" json:"short_name"`
	Country   string    `gorm:"size:50;not null" json:"country"`
	Active    bool      `gorm:"not null" json:"active"`
	Logo      string    `gorm:"size:512" json:"logo"`
	CreatedAt time.Time `json:"created_at"`
	// Map boundary: south, north, west, east.
	MinLat *float64 `json:"min_lat"`
	MaxLat *float64 `json:"max_lat"`
	MinLng *float64 `json:"min_lng"`
	MaxLng *float64 `json:"max_lng"`

	Buildings []Building `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// HasBounds reports whether all four bounds are present.
func (u *University) HasBounds() bool {
	return u.MinLat != nil && u.MaxLat != nil && u.MinLng != nil && u.MaxLng != nil
}

// ValidateBounds enforces the all-or-none bounding box invariant.
func (u *University) ValidateBounds() error {
	set := 0
	for _, v := range []*float64{u.MinLat, u.MaxLat, u.MinLng, u.MaxLng} {
		if v != nil {
			set++
		}
	}
	switch set {
	case 0:
		return nil
	case 4:
	default:
		return ErrPartialBounds
	}
	if !ValidLatitude(*u.MinLat) || !ValidLatitude(*u.MaxLat) ||
		!ValidLongitude(*u.MinLng) || !ValidLongitude(*u.MaxLng) ||
		*u.MinLat > *u.MaxLat || *u.MinLng > *u.MaxLng {
		return ErrInvalidBounds
	}
	return nil
}

// Boundary returns the campus rectangle as [lat, lng] corners, or an empty slice
// when the bounding box is not configured.
func (u *University) Boundary() [][2]float64 {
	if !u.HasBounds() {
		return [][2]float64{}
	}
	return [][2]float64{
		{*u.MinLat, *u.MinLng},
		{*u.MinLat, *u.MaxLng},
		{*u.MaxLat, *u.MaxLng},
		{*u.MaxLat, *u.MinLng},
	}
}
