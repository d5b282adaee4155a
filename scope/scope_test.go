package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/testutil"
)

func uintPtr(v uint) *uint { return &v }

func TestFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Scope{Kind: None}, For(nil))
	assert.Equal(t, Scope{Kind: All}, For(&models.StaffUser{IsSuperuser: true}))
	assert.Equal(t, Scope{Kind: All}, For(&models.StaffUser{
		IsSuperuser: true,
		CampusAdmin: &models.CampusAdminUser{UniversityID: 7},
	}))
	assert.Equal(t, Scope{Kind: Tenant, UniversityID: 7}, For(&models.StaffUser{
		CampusAdmin: &models.CampusAdminUser{UniversityID: 7},
	}))
	assert.Equal(t, Scope{Kind: None}, For(&models.StaffUser{}))
}

func TestScope_Filters(t *testing.T) {
	db := testutil.NewDB(t)

	harvard := testutil.CreateUniversity(t, db, "Harvard University", "HARV")
	mit := testutil.CreateUniversity(t, db, "Massachusetts Institute of Technology", "MIT")
	widener := testutil.CreateBuilding(t, db, "Widener Library", &harvard.ID)
	testutil.CreateBuilding(t, db, "Memorial Church", &harvard.ID)
	dome := testutil.CreateBuilding(t, db, "Great Dome", &mit.ID)
	testutil.CreateBuilding(t, db, "Legacy Hall", nil)

	require.NoError(t, db.Create(&models.DailyStats{Date: "2026-03-01", Visitors: 3, BuildingID: &widener.ID}).Error)
	require.NoError(t, db.Create(&models.DailyStats{Date: "2026-03-02", Visitors: 4, BuildingID: &dome.ID}).Error)
	require.NoError(t, db.Create(&models.DailyStats{Date: "2026-03-03", Visitors: 5}).Error)

	require.NoError(t, db.Create(&models.SiteVisit{SessionKey: "by-building", BuildingID: &widener.ID}).Error)
	require.NoError(t, db.Create(&models.SiteVisit{SessionKey: "by-university", UniversityID: &harvard.ID}).Error)
	require.NoError(t, db.Create(&models.SiteVisit{SessionKey: "mit", UniversityID: &mit.ID}).Error)
	require.NoError(t, db.Create(&models.SiteVisit{SessionKey: "anonymous"}).Error)

	tests := []struct {
		name         string
		scope        Scope
		buildings    int
		universities int
		dailyStats   int
		siteVisits   int
	}{
		{"superuser", Scope{Kind: All}, 4, 2, 3, 4},
		{"harvard admin", Scope{Kind: Tenant, UniversityID: harvard.ID}, 2, 1, 1, 2},
		{"mit admin", Scope{Kind: Tenant, UniversityID: mit.ID}, 1, 1, 1, 1},
		{"unassigned", Scope{Kind: None}, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buildings []models.Building
			require.NoError(t, tt.scope.Buildings(db.Model(&models.Building{})).Find(&buildings).Error)
			assert.Len(t, buildings, tt.buildings)

			var universities []models.University
			require.NoError(t, tt.scope.Universities(db.Model(&models.University{})).Find(&universities).Error)
			assert.Len(t, universities, tt.universities)

			var stats []models.DailyStats
			require.NoError(t, tt.scope.DailyStats(db.Model(&models.DailyStats{})).Find(&stats).Error)
			assert.Len(t, stats, tt.dailyStats)

			var visits []models.SiteVisit
			require.NoError(t, tt.scope.SiteVisits(db.Model(&models.SiteVisit{})).Find(&visits).Error)
			assert.Len(t, visits, tt.siteVisits)
		})
	}
}

func TestScope_AssignBuilding(t *testing.T) {
	t.Parallel()

	b := &models.Building{UniversityID: uintPtr(2)}
	require.NoError(t, Scope{Kind: Tenant, UniversityID: 1}.AssignBuilding(b))
	require.NotNil(t, b.UniversityID)
	assert.Equal(t, uint(1), *b.UniversityID, "tenant input is overridden")

	b = &models.Building{}
	require.NoError(t, Scope{Kind: Tenant, UniversityID: 1}.AssignBuilding(b))
	assert.Equal(t, uint(1), *b.UniversityID)

	b = &models.Building{UniversityID: uintPtr(2)}
	require.NoError(t, Scope{Kind: All}.AssignBuilding(b))
	assert.Equal(t, uint(2), *b.UniversityID, "superuser choice is kept")

	err := Scope{Kind: None}.AssignBuilding(&models.Building{})
	assert.ErrorIs(t, err, ErrNoAccess)
}

func TestScope_Allows(t *testing.T) {
	t.Parallel()

	tenant := Scope{Kind: Tenant, UniversityID: 1}
	assert.True(t, tenant.Allows(uintPtr(1)))
	assert.False(t, tenant.Allows(uintPtr(2)))
	assert.False(t, tenant.Allows(nil))

	assert.True(t, Scope{Kind: All}.Allows(nil))
	assert.False(t, Scope{Kind: None}.Allows(uintPtr(1)))
}
