package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unimap/unimap/middleware"
	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/utils"
	"github.com/unimap/unimap/visits"
)

const mapTemplate = "campus_map.html"

// CatalogController serves the public map page and building listing.
type CatalogController struct {
	db     *gorm.DB
	ledger *visits.Ledger
}

// NewCatalogController creates a new CatalogController instance.
func NewCatalogController(db *gorm.DB, ledger *visits.Ledger) *CatalogController {
	return &CatalogController{db: db, ledger: ledger}
}

// ListBuildings returns buildings, optionally only those of the university whose
// short name matches ?university= case-insensitively. Without the filter every
// building is returned.
func (c *CatalogController) ListBuildings(ctx *gin.Context) {
	query := c.db.WithContext(ctx.Request.Context()).Model(&models.Building{}).Order("buildings.id")
	if code := strings.TrimSpace(ctx.Query("university")); code != "" {
		query = query.
			Joins("JOIN universities ON universities.id = buildings.university_id").
			Where("LOWER(universities.short_name) = LOWER(?)", code)
	}

	buildings := []models.Building{}
	if err := query.Find(&buildings).Error; err != nil {
		utils.Sugar.Errorw("list buildings failed", "err", err)
		utils.APIError(ctx, http.StatusInternalServerError, "failed to list buildings")
		return
	}
	ctx.JSON(http.StatusOK, buildings)
}

// MapPage renders the campus map for /:short_code/, or the first active university on /.
func (c *CatalogController) MapPage(ctx *gin.Context) {
	code := strings.TrimSpace(ctx.Param("short_code"))

	query := c.db.WithContext(ctx.Request.Context()).Where("active = ?", true)
	if code != "" {
		query = query.Where("LOWER(short_name) = LOWER(?)", code)
	}

	var university models.University
	err := query.Order("id").First(&university).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Errorw("load university failed", "short_code", code, "err", err)
		}
		message := "No active university found."
		if code != "" {
			message = "University not found."
		}
		ctx.HTML(http.StatusOK, mapTemplate, gin.H{"Error": message})
		return
	}

	if key := middleware.VisitorSessionKey(ctx); key != "" && c.ledger != nil {
		if err := c.ledger.AttachUniversity(ctx.Request.Context(), key, university.ID); err != nil {
			utils.Sugar.Warnw("attach visitor to university failed", "university", university.ID, "err", err)
		}
	}

	ctx.HTML(http.StatusOK, mapTemplate, gin.H{
		"University": university,
		"Boundary":   university.Boundary(),
	})
}
