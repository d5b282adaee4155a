// Package scope restricts admin queries to the universities a staff identity may see.
package scope

import (
	"errors"

	"gorm.io/gorm"

	"github.com/unimap/unimap/models"
)

// ErrNoAccess is returned for writes by an identity with no tenant and no superuser flag.
var ErrNoAccess = errors.New("staff user is not assigned to a university")

// Kind classifies an identity's visibility.
type Kind int

const (
	// None sees nothing.
	None Kind = iota
	// Tenant sees one university.
	Tenant
	// All sees every university.
	All
)

func (k Kind) String() string {
	switch k {
	case Tenant:
		return "tenant"
	case All:
		return "all"
	default:
		return "none"
	}
}

// Scope is resolved once per admin request and passed to every query.
type Scope struct {
	Kind         Kind
	UniversityID uint
}

// For derives the scope of a staff identity. Superusers see everything even when
// they also carry a campus-admin link.
func For(staff *models.StaffUser) Scope {
	switch {
	case staff == nil:
		return Scope{Kind: None}
	case staff.IsSuperuser:
		return Scope{Kind: All}
	case staff.CampusAdmin != nil:
		return Scope{Kind: Tenant, UniversityID: staff.CampusAdmin.UniversityID}
	default:
		return Scope{Kind: None}
	}
}

// IsSuperuser reports whether the scope is unrestricted.
func (s Scope) IsSuperuser() bool {
	return s.Kind == All
}

// Buildings filters a building query.
func (s Scope) Buildings(db *gorm.DB) *gorm.DB {
	switch s.Kind {
	case All:
		return db
	case Tenant:
		return db.Where("buildings.university_id = ?", s.UniversityID)
	default:
		return db.Where("1 = 0")
	}
}

// Universities filters a university query.
func (s Scope) Universities(db *gorm.DB) *gorm.DB {
	switch s.Kind {
	case All:
		return db
	case Tenant:
		return db.Where("universities.id = ?", s.UniversityID)
	default:
		return db.Where("1 = 0")
	}
}

// DailyStats filters a daily_stats query through the building relation.
func (s Scope) DailyStats(db *gorm.DB) *gorm.DB {
	switch s.Kind {
	case All:
		return db
	case Tenant:
		return db.Where("daily_stats.building_id IN (?)", s.buildingIDs(db))
	default:
		return db.Where("1 = 0")
	}
}

// SiteVisits filters a site_visits query through the building relation or the
// university the session was attributed to.
func (s Scope) SiteVisits(db *gorm.DB) *gorm.DB {
	switch s.Kind {
	case All:
		return db
	case Tenant:
		return db.Where("(site_visits.building_id IN (?) OR site_visits.university_id = ?)",
			s.buildingIDs(db), s.UniversityID)
	default:
		return db.Where("1 = 0")
	}
}

func (s Scope) buildingIDs(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Building{}).
		Select("id").
		Where("university_id = ?", s.UniversityID)
}

// Allows reports whether the scope may read or modify a record of universityID.
// Records without a university are visible to superusers only.
func (s Scope) Allows(universityID *uint) bool {
	switch s.Kind {
	case All:
		return true
	case Tenant:
		return universityID != nil && *universityID == s.UniversityID
	default:
		return false
	}
}

// AssignBuilding applies the ownership rule before a building is saved: tenants always
// write into their own university, whatever the caller asked for.
func (s Scope) AssignBuilding(b *models.Building) error {
	switch s.Kind {
	case All:
		return nil
	case Tenant:
		id := s.UniversityID
		b.UniversityID = &id
		return nil
	default:
		return ErrNoAccess
	}
}
