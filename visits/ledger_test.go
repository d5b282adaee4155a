package visits

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/testutil"
)

func newTestLedger(t *testing.T, now time.Time) (*Ledger, func(time.Duration)) {
	t.Helper()
	l := NewLedger(testutil.NewDB(t))
	var mu sync.Mutex
	l.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
	return l, advance
}

func TestLedger_RecordVisit_InsertThenUpdate(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l, advance := newTestLedger(t, start)
	ctx := context.Background()

	require.NoError(t, l.RecordVisit(ctx, "sess-a"))
	advance(5 * time.Minute)
	require.NoError(t, l.RecordVisit(ctx, "sess-a"))

	var visits []models.SiteVisit
	require.NoError(t, l.db.Find(&visits).Error)
	require.Len(t, visits, 1)
	assert.True(t, visits[0].FirstVisit.Equal(start), "first_visit must not move")
	assert.True(t, visits[0].LastVisit.Equal(start.Add(5*time.Minute)))
}

func TestLedger_RecordVisit_ConcurrentSameSession(t *testing.T) {
	l := NewLedger(testutil.NewFileDB(t, 8))
	ctx := context.Background()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, l.RecordVisit(ctx, "sess-shared"))
		}()
	}
	close(start)
	wg.Wait()

	var count int64
	require.NoError(t, l.db.Model(&models.SiteVisit{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLedger_CountSession(t *testing.T) {
	l, advance := newTestLedger(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, l.RecordVisit(ctx, "sess-a"))
	require.NoError(t, l.EnsureDay(ctx, l.Today()))

	counted, err := l.CountSession(ctx, "sess-a", l.Today())
	require.NoError(t, err)
	assert.True(t, counted)
	counted, err = l.CountSession(ctx, "sess-a", l.Today())
	require.NoError(t, err)
	assert.False(t, counted, "same day counts once")

	advance(24 * time.Hour)
	require.NoError(t, l.EnsureDay(ctx, l.Today()))
	counted, err = l.CountSession(ctx, "sess-a", l.Today())
	require.NoError(t, err)
	assert.True(t, counted)

	counted, err = l.CountSession(ctx, "unknown", l.Today())
	require.NoError(t, err)
	assert.False(t, counted, "sessions without a visit row are not counted")

	var rows []models.DailyStats
	require.NoError(t, l.db.Order("date").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-03-01", rows[0].Date)
	assert.Equal(t, int64(1), rows[0].Visitors)
	assert.Equal(t, "2026-03-02", rows[1].Date)
	assert.Equal(t, int64(1), rows[1].Visitors)
}

func TestLedger_CountSession_MissingDayRollsBack(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	require.NoError(t, l.RecordVisit(ctx, "sess-a"))

	_, err := l.CountSession(ctx, "sess-a", l.Today())
	require.Error(t, err)

	var visit models.SiteVisit
	require.NoError(t, l.db.Where("session_key = ?", "sess-a").First(&visit).Error)
	assert.Nil(t, visit.CountedOn, "claim is released when the increment fails")
}

func TestLedger_CountSession_ConcurrentSameSession(t *testing.T) {
	l := NewLedger(testutil.NewFileDB(t, 8))
	ctx := context.Background()
	day := "2026-03-01"
	require.NoError(t, l.RecordVisit(ctx, "sess-shared"))
	require.NoError(t, l.EnsureDay(ctx, day))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	start := make(chan struct{})
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			counted, err := l.CountSession(ctx, "sess-shared", day)
			assert.NoError(t, err)
			if counted {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	var row models.DailyStats
	require.NoError(t, l.db.Where("date = ?", day).First(&row).Error)
	assert.Equal(t, int64(1), row.Visitors)
}

func TestLedger_DailyCounter(t *testing.T) {
	l, _ := newTestLedger(t, time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)))
	ctx := context.Background()

	day := l.Today()
	assert.Equal(t, "2026-03-02", day, "days are UTC")

	require.NoError(t, l.EnsureDay(ctx, day))
	require.NoError(t, l.EnsureDay(ctx, day))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.CountVisitor(ctx, day))
		}()
	}
	wg.Wait()

	var rows []models.DailyStats
	require.NoError(t, l.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-03-02", rows[0].Date)
	assert.Equal(t, int64(5), rows[0].Visitors)
}

func TestLedger_CountVisitor_MissingDay(t *testing.T) {
	l, _ := newTestLedger(t, time.Now())

	err := l.CountVisitor(context.Background(), "1999-01-01")
	require.Error(t, err)
}

func TestLedger_AttachUniversity_FirstWins(t *testing.T) {
	l, _ := newTestLedger(t, time.Now())
	ctx := context.Background()
	harvard := testutil.CreateUniversity(t, l.db, "Harvard University", "HARV")
	mit := testutil.CreateUniversity(t, l.db, "Massachusetts Institute of Technology", "MIT")

	require.NoError(t, l.RecordVisit(ctx, "sess-a"))
	require.NoError(t, l.AttachUniversity(ctx, "sess-a", harvard.ID))
	require.NoError(t, l.AttachUniversity(ctx, "sess-a", mit.ID))

	var visit models.SiteVisit
	require.NoError(t, l.db.Where("session_key = ?", "sess-a").First(&visit).Error)
	require.NotNil(t, visit.UniversityID)
	assert.Equal(t, harvard.ID, *visit.UniversityID)
}

func TestLedger_Prune(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l, advance := newTestLedger(t, start)
	ctx := context.Background()

	require.NoError(t, l.RecordVisit(ctx, "stale"))
	advance(200 * 24 * time.Hour)
	require.NoError(t, l.RecordVisit(ctx, "fresh"))
	require.NoError(t, l.EnsureDay(ctx, "2026-01-01"))

	l.pruneOnce(ctx, 180)

	var keys []string
	require.NoError(t, l.db.Model(&models.SiteVisit{}).Pluck("session_key", &keys).Error)
	assert.Equal(t, []string{"fresh"}, keys)

	var days int64
	require.NoError(t, l.db.Model(&models.DailyStats{}).Count(&days).Error)
	assert.Equal(t, int64(1), days, "daily stats are never pruned")
}
