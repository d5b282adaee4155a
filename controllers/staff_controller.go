package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/utils"
)

// StaffController lets superusers manage staff identities and campus-admin links.
type StaffController struct {
	db *gorm.DB
}

// NewStaffController creates a new StaffController instance.
func NewStaffController(db *gorm.DB) *StaffController {
	return &StaffController{db: db}
}

// ListStaff returns every staff user with their campus assignment.
func (s *StaffController) ListStaff(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	query := s.db.WithContext(ctx.Request.Context()).Model(&models.StaffUser{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to count staff")
		return
	}

	var staff []models.StaffUser
	if err := query.Preload("CampusAdmin").Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&staff).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list staff")
		return
	}

	items := make([]gin.H, 0, len(staff))
	for _, st := range staff {
		items = append(items, staffResponse(st))
	}
	utils.Success(ctx, paginated(items, page, pageSize, total))
}

// CreateStaff adds a staff user, optionally bound to one university.
func (s *StaffController) CreateStaff(ctx *gin.Context) {
	var req struct {
		Username     string `json:"username" binding:"required,min=3,max=64"`
		Password     string `json:"password" binding:"required"`
		IsSuperuser  bool   `json:"is_superuser"`
		UniversityID *uint  `json:"university_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	staff, err := CreateStaffUser(s.db.WithContext(ctx.Request.Context()),
		req.Username, req.Password, req.IsSuperuser, req.UniversityID)
	switch {
	case err == nil:
		utils.Respond(ctx, http.StatusCreated, 0, "success", staffResponse(*staff))
	case errors.Is(err, utils.ErrWeakPassword):
		utils.Error(ctx, http.StatusBadRequest, 40051, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		utils.Error(ctx, http.StatusConflict, 40950, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusBadRequest, 40052, "university does not exist")
	default:
		utils.Sugar.Errorw("create staff failed", "username", req.Username, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to create staff user")
	}
}

// ErrUsernameTaken is returned when a staff username already exists.
var ErrUsernameTaken = errors.New("username already exists")

// CreateStaffUser stores a new active staff user and, when universityID is set,
// its campus-admin link. Shared by the admin API and the create-admin command.
func CreateStaffUser(db *gorm.DB, username, password string, superuser bool, universityID *uint) (*models.StaffUser, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	staff := models.StaffUser{Username: username, PasswordHash: hash, IsSuperuser: superuser, Active: true}
	err = db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.StaffUser{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		if universityID != nil {
			var university models.University
			if err := tx.First(&university, *universityID).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&staff).Error; err != nil {
			return err
		}
		if universityID == nil {
			return nil
		}
		link := models.CampusAdminUser{StaffUserID: staff.ID, UniversityID: *universityID}
		if err := tx.Omit("University").Create(&link).Error; err != nil {
			return err
		}
		staff.CampusAdmin = &link
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &staff, nil
}
