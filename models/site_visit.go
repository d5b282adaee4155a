package models

import "time"

// SiteVisit stores one record per browser session; the session key stands in for a unique visitor.
type SiteVisit struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionKey   string    `gorm:"size:64;not null;uniqueIndex" json:"session_key"`
	FirstVisit   time.Time `gorm:"not null" json:"first_visit"`
	LastVisit    time.Time `gorm:"not null;index" json:"last_visit"`
	BuildingID   *uint     `gorm:"index" json:"building"`
	UniversityID *uint     `gorm:"index" json:"university"`
	// CountedOn is the last UTC day this session was added to DailyStats.
	CountedOn    *string   `gorm:"type:varchar(10)" json:"counted_on"`
}
