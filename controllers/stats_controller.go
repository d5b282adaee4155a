package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unimap/unimap/middleware"
	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/utils"
	"github.com/unimap/unimap/visits"
)

// StatsController exposes visitor statistics to staff, limited to their scope.
type StatsController struct {
	db     *gorm.DB
	ledger *visits.Ledger
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, ledger *visits.Ledger) *StatsController {
	return &StatsController{db: db, ledger: ledger}
}

// GetStats returns total visitors and today's visitors for the caller's scope.
func (s *StatsController) GetStats(ctx *gin.Context) {
	sc := middleware.CurrentScope(ctx)
	base := func() *gorm.DB {
		return sc.DailyStats(s.db.WithContext(ctx.Request.Context()).Model(&models.DailyStats{}))
	}

	var total, today int64
	if err := base().Select("COALESCE(SUM(visitors),0)").Scan(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to sum visitors")
		return
	}
	if err := base().Where("daily_stats.date = ?", s.ledger.Today()).
		Select("COALESCE(SUM(visitors),0)").Scan(&today).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to sum today's visitors")
		return
	}

	utils.Success(ctx, gin.H{
		"total_visitors": total,
		"visitors_today": today,
	})
}

// ListDailyStats returns daily visitor rows, newest day first.
func (s *StatsController) ListDailyStats(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	sc := middleware.CurrentScope(ctx)

	query := sc.DailyStats(s.db.WithContext(ctx.Request.Context()).Model(&models.DailyStats{}))
	if from := strings.TrimSpace(ctx.Query("from")); from != "" {
		query = query.Where("daily_stats.date >= ?", from)
	}
	if to := strings.TrimSpace(ctx.Query("to")); to != "" {
		query = query.Where("daily_stats.date <= ?", to)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count daily stats")
		return
	}

	items := []models.DailyStats{}
	if err := query.Order("daily_stats.date DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list daily stats")
		return
	}
	utils.Success(ctx, paginated(items, page, pageSize, total))
}

// ListSiteVisits returns visitor sessions, most recently active first.
func (s *StatsController) ListSiteVisits(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	sc := middleware.CurrentScope(ctx)

	query := sc.SiteVisits(s.db.WithContext(ctx.Request.Context()).Model(&models.SiteVisit{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to count site visits")
		return
	}

	items := []models.SiteVisit{}
	if err := query.Order("site_visits.last_visit DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to list site visits")
		return
	}
	utils.Success(ctx, paginated(items, page, pageSize, total))
}
