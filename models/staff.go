package models

import (
	"time"

	"gorm.io/gorm"
)

// StaffUser is an administrative identity. Passwords are stored as bcrypt hashes only.
type StaffUser struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Username     string           `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string           `gorm:"size:255;not null" json:"-"`
	IsSuperuser  bool             `gorm:"not null;default:false" json:"is_superuser"`
	Active       bool             `gorm:"not null" json:"active"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	CampusAdmin  *CampusAdminUser `gorm:"foreignKey:StaffUserID;constraint:OnDelete:CASCADE;" json:"campus_admin,omitempty"`
}

// CampusAdminUser ties a staff identity to exactly one university.
type CampusAdminUser struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	StaffUserID  uint       `gorm:"not null;uniqueIndex" json:"staff_user_id"`
	UniversityID uint       `gorm:"not null;index" json:"university_id"`
	University   University `gorm:"constraint:OnDelete:CASCADE;" json:"university"`
}

// BeforeCreate ensures timestamps are set even when not provided.
func (u *StaffUser) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}
