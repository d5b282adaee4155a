package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unimap/unimap/middleware"
	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/scope"
	"github.com/unimap/unimap/utils"
)

// BuildingController manages buildings in the admin API. Every query goes through
// the caller's scope.
type BuildingController struct {
	db    *gorm.DB
	media utils.MediaStore
}

// NewBuildingController creates a new BuildingController instance.
func NewBuildingController(db *gorm.DB, media utils.MediaStore) *BuildingController {
	return &BuildingController{db: db, media: media}
}

type buildingRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	Category    string   `json:"category" binding:"max=50"`
	Description string   `json:"description"`
	University  *uint    `json:"university"`
}

func (r buildingRequest) apply(b *models.Building) {
	b.Name = strings.TrimSpace(r.Name)
	b.Latitude = *r.Latitude
	b.Longitude = *r.Longitude
	b.Category = strings.TrimSpace(r.Category)
	b.Description = utils.Sanitize(r.Description)
	b.UniversityID = r.University
}

// ListBuildings returns the caller's buildings, newest first.
func (b *BuildingController) ListBuildings(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	sc := middleware.CurrentScope(ctx)

	query := sc.Buildings(b.db.WithContext(ctx.Request.Context()).Model(&models.Building{}))
	if search := strings.TrimSpace(ctx.Query("search")); search != "" {
		query = query.Where("LOWER(buildings.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if category := strings.TrimSpace(ctx.Query("category")); category != "" {
		query = query.Where("buildings.category = ?", category)
	}
	if uni := strings.TrimSpace(ctx.Query("university")); uni != "" && sc.IsSuperuser() {
		query = query.Where("buildings.university_id = ?", uni)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count buildings")
		return
	}

	items := []models.Building{}
	if err := query.Order("buildings.id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list buildings")
		return
	}
	utils.Success(ctx, paginated(items, page, pageSize, total))
}

// GetBuilding returns one building within the caller's scope.
func (b *BuildingController) GetBuilding(ctx *gin.Context) {
	building, ok := b.load(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, building)
}

// CreateBuilding adds a building. Campus admins always create into their own university.
func (b *BuildingController) CreateBuilding(ctx *gin.Context) {
	if denyUnassigned(ctx) {
		return
	}
	var req buildingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	var building models.Building
	req.apply(&building)
	if !b.prepare(ctx, &building) {
		return
	}

	if err := b.db.WithContext(ctx.Request.Context()).Create(&building).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to create building")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", building)
}

// UpdateBuilding replaces a building's attributes. A campus admin cannot move it to
// another university.
func (b *BuildingController) UpdateBuilding(ctx *gin.Context) {
	if denyUnassigned(ctx) {
		return
	}
	building, ok := b.load(ctx)
	if !ok {
		return
	}

	var req buildingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	req.apply(building)
	if !b.prepare(ctx, building) {
		return
	}

	if err := b.db.WithContext(ctx.Request.Context()).Save(building).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to update building")
		return
	}
	utils.Success(ctx, building)
}

// DeleteBuilding removes a building within the caller's scope.
func (b *BuildingController) DeleteBuilding(ctx *gin.Context) {
	if denyUnassigned(ctx) {
		return
	}
	building, ok := b.load(ctx)
	if !ok {
		return
	}
	if err := b.db.WithContext(ctx.Request.Context()).Delete(building).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to delete building")
		return
	}
	utils.Success(ctx, gin.H{"message": "building deleted"})
}

// UploadPhoto stores the building photo.
func (b *BuildingController) UploadPhoto(ctx *gin.Context) {
	b.upload(ctx, "photo", "building_photos")
}

// UploadIcon stores the building map icon.
func (b *BuildingController) UploadIcon(ctx *gin.Context) {
	b.upload(ctx, "icon", "building_icons")
}

func (b *BuildingController) upload(ctx *gin.Context, column, subdir string) {
	if denyUnassigned(ctx) {
		return
	}
	building, ok := b.load(ctx)
	if !ok {
		return
	}
	url, ok := saveUpload(ctx, b.media, subdir)
	if !ok {
		return
	}
	if err := b.db.WithContext(ctx.Request.Context()).Model(building).Update(column, url).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to save "+column)
		return
	}
	if column == "photo" {
		building.Photo = url
	} else {
		building.Icon = url
	}
	utils.Success(ctx, building)
}

func (b *BuildingController) load(ctx *gin.Context) (*models.Building, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid building id")
		return nil, false
	}

	var building models.Building
	sc := middleware.CurrentScope(ctx)
	err := sc.Buildings(b.db.WithContext(ctx.Request.Context())).First(&building, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "building not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load building")
		}
		return nil, false
	}
	return &building, true
}

// prepare applies ownership and validation before a write.
func (b *BuildingController) prepare(ctx *gin.Context, building *models.Building) bool {
	if err := middleware.CurrentScope(ctx).AssignBuilding(building); err != nil {
		if errors.Is(err, scope.ErrNoAccess) {
			utils.Error(ctx, http.StatusForbidden, 40320, err.Error())
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to assign building")
		}
		return false
	}
	if building.Name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "name cannot be empty")
		return false
	}
	if err := building.Validate(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, err.Error())
		return false
	}
	if building.UniversityID != nil {
		var n int64
		if err := b.db.WithContext(ctx.Request.Context()).Model(&models.University{}).
			Where("id = ?", *building.UniversityID).Count(&n).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to check university")
			return false
		}
		if n == 0 {
			utils.Error(ctx, http.StatusBadRequest, 40024, "university does not exist")
			return false
		}
	}
	return true
}
