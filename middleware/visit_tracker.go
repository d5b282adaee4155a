package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/unimap/unimap/metrics"
	"github.com/unimap/unimap/utils"
	"github.com/unimap/unimap/visits"
)

const (
	// ContextSessionKey holds the visitor session key for downstream handlers.
	ContextSessionKey = "visitor_session_key"

	sessionKeyField = "session_key"
)

// VisitTracker records one SiteVisit per browser session and counts each session once
// per UTC day in DailyStats. The counted day is kept on the SiteVisit row, so the cookie
// only carries the session key. Tracking failures are logged and never fail the request.
func VisitTracker(store sessions.Store, ledger *visits.Ledger, skipPrefixes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// A tampered or stale cookie yields a fresh session alongside the error.
		session, err := store.Get(c.Request, utils.VisitorSessionName)
		if err != nil {
			utils.Sugar.Debugw("visitor session reset", "err", err)
		}
		if session == nil {
			metrics.TrackingErrors.WithLabelValues("session").Inc()
			c.Next()
			return
		}

		key, _ := session.Values[sessionKeyField].(string)
		dirty := false
		if key == "" {
			key = uuid.NewString()
			session.Values[sessionKeyField] = key
			dirty = true
		}
		c.Set(ContextSessionKey, key)

		ctx := c.Request.Context()
		if err := ledger.RecordVisit(ctx, key); err != nil {
			metrics.TrackingErrors.WithLabelValues("visit").Inc()
			utils.Sugar.Warnw("visit tracking failed", "stage", "visit", "err", err)
		}

		today := ledger.Today()
		if err := ledger.EnsureDay(ctx, today); err != nil {
			metrics.TrackingErrors.WithLabelValues("day").Inc()
			utils.Sugar.Warnw("visit tracking failed", "stage", "day", "err", err)
		} else if counted, err := ledger.CountSession(ctx, key, today); err != nil {
			metrics.TrackingErrors.WithLabelValues("count").Inc()
			utils.Sugar.Warnw("visit tracking failed", "stage", "count", "err", err)
		} else if counted {
			metrics.VisitorsCounted.Inc()
		}

		if dirty {
			if err := session.Save(c.Request, c.Writer); err != nil {
				metrics.TrackingErrors.WithLabelValues("session").Inc()
				utils.Sugar.Warnw("visitor session save failed", "err", err)
			}
		}

		c.Next()
	}
}

// VisitorSessionKey returns the session key set by VisitTracker, if any.
func VisitorSessionKey(c *gin.Context) string {
	return c.GetString(ContextSessionKey)
}
