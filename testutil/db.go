// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/unimap/unimap/config"
	"github.com/unimap/unimap/models"
)

// NewDB returns a migrated, private in-memory sqlite database closed at test cleanup.
// It holds a single connection, so concurrent callers are serialized by the pool.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	return open(t, dsn, 1)
}

// NewFileDB returns a migrated sqlite database in WAL mode backed by a temp file, with
// several pooled connections so concurrent writers really race on the database.
func NewFileDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unimap.db")
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate&_foreign_keys=on"
	return open(t, dsn, conns)
}

func open(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// CreateUniversity inserts an active university with the given short name.
func CreateUniversity(t *testing.T, db *gorm.DB, name, shortName string) *models.University {
	t.Helper()
	u := &models.University{Name: name, ShortName: shortName, Country: "USA", Active: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateBuilding inserts a building belonging to universityID (nil for none).
func CreateBuilding(t *testing.T, db *gorm.DB, name string, universityID *uint) *models.Building {
	t.Helper()
	b := &models.Building{Name: name, Latitude: 42.37, Longitude: -71.11, Category: "Academic", UniversityID: universityID}
	require.NoError(t, db.Create(b).Error)
	return b
}

// CreateStaff inserts an active staff user, optionally linked to a university.
func CreateStaff(t *testing.T, db *gorm.DB, username string, superuser bool, universityID *uint) *models.StaffUser {
	t.Helper()
	s := &models.StaffUser{Username: username, PasswordHash: "x", IsSuperuser: superuser, Active: true}
	require.NoError(t, db.Create(s).Error)
	if universityID != nil {
		link := &models.CampusAdminUser{StaffUserID: s.ID, UniversityID: *universityID}
		require.NoError(t, db.Omit("University").Create(link).Error)
		s.CampusAdmin = link
	}
	return s
}
