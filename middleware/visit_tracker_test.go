package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/testutil"
	"github.com/unimap/unimap/utils"
	"github.com/unimap/unimap/visits"
)

type trackerHarness struct {
	db     *gorm.DB
	router *gin.Engine
	mu     sync.Mutex
	now    time.Time
}

func newTrackerHarness(t *testing.T) *trackerHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &trackerHarness{db: testutil.NewDB(t), now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
	ledger := visits.NewLedger(h.db).WithClock(func() time.Time {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.now
	})
	store := utils.NewSessionStore("test-secret", 3600, false)

	h.router = gin.New()
	h.router.Use(VisitTracker(store, ledger, []string{"/admin/", "/static/"}))
	handler := func(c *gin.Context) { c.String(http.StatusOK, VisitorSessionKey(c)) }
	h.router.GET("/", handler)
	h.router.GET("/admin/stats", handler)
	h.router.GET("/static/app.js", handler)
	return h
}

func (h *trackerHarness) advance(d time.Duration) {
	h.mu.Lock()
	h.now = h.now.Add(d)
	h.mu.Unlock()
}

func (h *trackerHarness) get(t *testing.T, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w
}

func (h *trackerHarness) visitors(t *testing.T, day string) int64 {
	t.Helper()
	var row models.DailyStats
	require.NoError(t, h.db.Where("date = ?", day).First(&row).Error)
	return row.Visitors
}

func (h *trackerHarness) visitCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&models.SiteVisit{}).Count(&n).Error)
	return n
}

func TestVisitTracker_CountsSessionOncePerDay(t *testing.T) {
	h := newTrackerHarness(t)

	first := h.get(t, "/", nil)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies, "new session must set a cookie")
	key := first.Body.String()
	require.NotEmpty(t, key)

	for i := 0; i < 3; i++ {
		w := h.get(t, "/", cookies)
		assert.Equal(t, key, w.Body.String())
	}

	assert.Equal(t, int64(1), h.visitors(t, "2026-05-04"))
	assert.Equal(t, int64(1), h.visitCount(t))
}

func TestVisitTracker_DistinctSessions(t *testing.T) {
	h := newTrackerHarness(t)

	a := h.get(t, "/", nil)
	b := h.get(t, "/", nil)
	assert.NotEqual(t, a.Body.String(), b.Body.String())

	assert.Equal(t, int64(2), h.visitors(t, "2026-05-04"))
	assert.Equal(t, int64(2), h.visitCount(t))
}

func TestVisitTracker_CountsAgainNextDay(t *testing.T) {
	h := newTrackerHarness(t)

	cookies := h.get(t, "/", nil).Result().Cookies()
	h.advance(24 * time.Hour)
	w := h.get(t, "/", cookies)
	if updated := w.Result().Cookies(); len(updated) > 0 {
		cookies = updated
	}
	h.get(t, "/", cookies)

	assert.Equal(t, int64(1), h.visitors(t, "2026-05-04"))
	assert.Equal(t, int64(1), h.visitors(t, "2026-05-05"))
	assert.Equal(t, int64(1), h.visitCount(t))
}

func TestVisitTracker_ReplayedCookieCountsOncePerDay(t *testing.T) {
	h := newTrackerHarness(t)

	dayOne := h.get(t, "/", nil).Result().Cookies()
	require.NotEmpty(t, dayOne)
	h.advance(24 * time.Hour)

	for i := 0; i < 5; i++ {
		h.get(t, "/", dayOne)
	}

	assert.Equal(t, int64(1), h.visitors(t, "2026-05-04"))
	assert.Equal(t, int64(1), h.visitors(t, "2026-05-05"))
	assert.Equal(t, int64(1), h.visitCount(t))
}

func TestVisitTracker_ConcurrentRequestsSameSession(t *testing.T) {
	h := newTrackerHarness(t)
	cookies := h.get(t, "/", nil).Result().Cookies()
	h.advance(24 * time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, c := range cookies {
				req.AddCookie(c)
			}
			w := httptest.NewRecorder()
			h.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), h.visitors(t, "2026-05-05"))
}

func TestVisitTracker_SkipsExcludedPrefixes(t *testing.T) {
	h := newTrackerHarness(t)

	w := h.get(t, "/admin/stats", nil)
	assert.Empty(t, w.Result().Cookies())
	assert.Empty(t, w.Body.String())
	h.get(t, "/static/app.js", nil)

	assert.Equal(t, int64(0), h.visitCount(t))
	var days int64
	require.NoError(t, h.db.Model(&models.DailyStats{}).Count(&days).Error)
	assert.Equal(t, int64(0), days)
}

func TestVisitTracker_AbsorbsStorageErrors(t *testing.T) {
	h := newTrackerHarness(t)
	sqlDB, err := h.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := h.get(t, "/", nil)
	assert.NotEmpty(t, w.Body.String(), "request still served with a session key")
}
