// Package visits records anonymous visitor sessions and the daily visitor counter.
package visits

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unimap/unimap/models"
)

// DateLayout is the calendar day format stored in daily_stats.date.
const DateLayout = "2006-01-02"

// Ledger writes SiteVisit and DailyStats rows. Every write is a single statement so
// concurrent requests for the same session or day never produce duplicates.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLedger creates a Ledger on db.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// WithClock replaces the time source, for tests and backfills.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Today returns the current UTC calendar day.
func (l *Ledger) Today() string {
	return l.now().UTC().Format(DateLayout)
}

// RecordVisit creates the SiteVisit for sessionKey or bumps its last_visit.
// first_visit is only ever written by the insert.
func (l *Ledger) RecordVisit(ctx context.Context, sessionKey string) error {
	now := l.now().UTC()
	visit := models.SiteVisit{SessionKey: sessionKey, FirstVisit: now, LastVisit: now}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_visit"}),
	}).Create(&visit).Error
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// EnsureDay creates the DailyStats row for day with zero visitors unless it exists.
func (l *Ledger) EnsureDay(ctx context.Context, day string) error {
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&models.DailyStats{Date: day}).Error
	if err != nil {
		return fmt.Errorf("ensure daily stats %s: %w", day, err)
	}
	return nil
}

// CountVisitor atomically adds one visitor to day. The row must exist.
func (l *Ledger) CountVisitor(ctx context.Context, day string) error {
	res := l.db.WithContext(ctx).Model(&models.DailyStats{}).
		Where("date = ?", day).
		UpdateColumn("visitors", gorm.Expr("visitors + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("count visitor %s: %w", day, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("count visitor %s: %w", day, gorm.ErrRecordNotFound)
	}
	return nil
}

// CountSession adds sessionKey to day's visitors unless it was already counted that day.
// The claim on site_visits.counted_on and the increment commit together, so concurrent
// or replayed requests from one session count once. It reports whether this call counted.
func (l *Ledger) CountSession(ctx context.Context, sessionKey, day string) (bool, error) {
	counted := false
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SiteVisit{}).
			Where("session_key = ? AND (counted_on IS NULL OR counted_on <> ?)", sessionKey, day).
			UpdateColumn("counted_on", day)
		if res.Error != nil {
			return fmt.Errorf("claim session %s: %w", day, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := NewLedger(tx).CountVisitor(ctx, day); err != nil {
			return err
		}
		counted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}

// AttachUniversity attributes a session to the first university whose map it opened.
// Sessions already attributed keep their university.
func (l *Ledger) AttachUniversity(ctx context.Context, sessionKey string, universityID uint) error {
	err := l.db.WithContext(ctx).Model(&models.SiteVisit{}).
		Where("session_key = ? AND university_id IS NULL", sessionKey).
		UpdateColumn("university_id", universityID).Error
	if err != nil {
		return fmt.Errorf("attach university: %w", err)
	}
	return nil
}

// Prune deletes visits whose last activity is before cutoff and returns how many went.
func (l *Ledger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := l.db.WithContext(ctx).Where("last_visit < ?", cutoff.UTC()).Delete(&models.SiteVisit{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune site visits: %w", res.Error)
	}
	return res.RowsAffected, nil
}
