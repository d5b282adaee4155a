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
)

// UniversityController manages tenants in the admin API.
type UniversityController struct {
	db    *gorm.DB
	media utils.MediaStore
}

// NewUniversityController creates a new UniversityController instance.
func NewUniversityController(db *gorm.DB, media utils.MediaStore) *UniversityController {
	return &UniversityController{db: db, media: media}
}

type universityRequest struct {
	Name      string   `json:"name" binding:"required,max=150"`
	ShortName string   `json:"short_name" binding:"required,max=20"`
	Country   string   `json:"country" binding:"required,max=50"`
	Active    *bool    `json:"active"`
	MinLat    *float64 `json:"min_lat"`
	MaxLat    *float64 `json:"max_lat"`
	MinLng    *float64 `json:"min_lng"`
	MaxLng    *float64 `json:"max_lng"`
}

func (r universityRequest) apply(u *models.University) {
	u.Name = strings.TrimSpace(r.Name)
	u.ShortName = strings.TrimSpace(r.ShortName)
	u.Country = strings.TrimSpace(r.Country)
	if r.Active != nil {
		u.Active = *r.Active
	}
	u.MinLat, u.MaxLat, u.MinLng, u.MaxLng = r.MinLat, r.MaxLat, r.MinLng, r.MaxLng
}

// ListUniversities returns the universities visible to the caller.
func (u *UniversityController) ListUniversities(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	sc := middleware.CurrentScope(ctx)

	query := sc.Universities(u.db.WithContext(ctx.Request.Context()).Model(&models.University{}))
	if search := strings.TrimSpace(ctx.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(short_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to count universities")
		return
	}

	items := []models.University{}
	if err := query.Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to list universities")
		return
	}
	utils.Success(ctx, paginated(items, page, pageSize, total))
}

// GetUniversity returns one university within the caller's scope.
func (u *UniversityController) GetUniversity(ctx *gin.Context) {
	university, ok := u.load(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, university)
}

// CreateUniversity adds a tenant. Superuser only.
func (u *UniversityController) CreateUniversity(ctx *gin.Context) {
	var req universityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	university := models.University{Active: true}
	req.apply(&university)
	if !u.validate(ctx, &university) {
		return
	}

	if err := u.db.WithContext(ctx.Request.Context()).Create(&university).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to create university")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", university)
}

// UpdateUniversity replaces a tenant's attributes. Superuser only.
func (u *UniversityController) UpdateUniversity(ctx *gin.Context) {
	university, ok := u.load(ctx)
	if !ok {
		return
	}

	var req universityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}
	req.apply(university)
	if !u.validate(ctx, university) {
		return
	}

	if err := u.db.WithContext(ctx.Request.Context()).Save(university).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to update university")
		return
	}
	utils.Success(ctx, university)
}

// DeactivateUniversity hides a tenant from the public map without deleting anything.
func (u *UniversityController) DeactivateUniversity(ctx *gin.Context) {
	university, ok := u.load(ctx)
	if !ok {
		return
	}
	if err := u.db.WithContext(ctx.Request.Context()).Model(university).Update("active", false).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to deactivate university")
		return
	}
	university.Active = false
	utils.Success(ctx, university)
}

// PurgeUniversity deletes a tenant together with its buildings and campus-admin links.
func (u *UniversityController) PurgeUniversity(ctx *gin.Context) {
	university, ok := u.load(ctx)
	if !ok {
		return
	}

	err := u.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SiteVisit{}).Where("university_id = ?", university.ID).
			Update("university_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("university_id = ?", university.ID).Delete(&models.CampusAdminUser{}).Error; err != nil {
			return err
		}
		if err := tx.Where("university_id = ?", university.ID).Delete(&models.Building{}).Error; err != nil {
			return err
		}
		return tx.Delete(university).Error
	})
	if err != nil {
		utils.Sugar.Errorw("purge university failed", "university", university.ID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to purge university")
		return
	}
	utils.Sugar.Infow("university purged", "university", university.ID, "short_name", university.ShortName)
	utils.Success(ctx, gin.H{"message": "university purged"})
}

// UploadLogo stores the university logo image.
func (u *UniversityController) UploadLogo(ctx *gin.Context) {
	university, ok := u.load(ctx)
	if !ok {
		return
	}

	url, ok := saveUpload(ctx, u.media, "university_logos")
	if !ok {
		return
	}
	if err := u.db.WithContext(ctx.Request.Context()).Model(university).Update("logo", url).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to save logo")
		return
	}
	university.Logo = url
	utils.Success(ctx, university)
}

func (u *UniversityController) load(ctx *gin.Context) (*models.University, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid university id")
		return nil, false
	}

	var university models.University
	sc := middleware.CurrentScope(ctx)
	err := sc.Universities(u.db.WithContext(ctx.Request.Context())).First(&university, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "university not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to load university")
		}
		return nil, false
	}
	return &university, true
}

func (u *UniversityController) validate(ctx *gin.Context, university *models.University) bool {
	if university.Name == "" || university.ShortName == "" || university.Country == "" {
		utils.Error(ctx, http.StatusBadRequest, 40012, "name, short_name and country are required")
		return false
	}
	if err := university.ValidateBounds(); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, err.Error())
		return false
	}

	var clash int64
	query := u.db.WithContext(ctx.Request.Context()).Model(&models.University{}).
		Where("LOWER(short_name) = LOWER(?)", university.ShortName)
	if university.ID != 0 {
		query = query.Where("id <> ?", university.ID)
	}
	if err := query.Count(&clash).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50018, "failed to check short name")
		return false
	}
	if clash > 0 {
		utils.Error(ctx, http.StatusConflict, 40910, "short_name already in use")
		return false
	}
	return true
}

// saveUpload stores the multipart "file" field and writes the error response itself on failure.
func saveUpload(ctx *gin.Context, media utils.MediaStore, subdir string) (string, bool) {
	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return "", false
	}

	url, err := media.SaveImage(header, subdir)
	switch {
	case err == nil:
		return url, true
	case errors.Is(err, utils.ErrFileTooLarge):
		utils.Error(ctx, http.StatusRequestEntityTooLarge, 41301, err.Error())
	case errors.Is(err, utils.ErrNotImage):
		utils.Error(ctx, http.StatusBadRequest, 40031, err.Error())
	default:
		utils.Sugar.Errorw("media upload failed", "subdir", subdir, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save file")
	}
	return "", false
}
