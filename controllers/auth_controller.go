package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unimap/unimap/middleware"
	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/scope"
	"github.com/unimap/unimap/utils"
)

// AuthController handles staff login for the admin API.
type AuthController struct {
	db       *gorm.DB
	secret   string
	tokenTTL time.Duration
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB, secret string, tokenTTL time.Duration) *AuthController {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AuthController{db: db, secret: secret, tokenTTL: tokenTTL}
}

// Login verifies staff credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var staff models.StaffUser
	err := a.db.Preload("CampusAdmin").Where("username = ?", strings.TrimSpace(req.Username)).First(&staff).Error
	if err != nil || !utils.CheckPassword(staff.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if !staff.Active {
		utils.Error(ctx, http.StatusForbidden, 40301, "staff account disabled")
		return
	}

	token, err := utils.GenerateToken(a.secret, staff.ID, staff.Username, a.tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Sugar.Infow("staff login", "staff_id", staff.ID, "ip", ctx.ClientIP())
	utils.Success(ctx, gin.H{
		"token": token,
		"staff": staffResponse(staff),
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token, expiresAt := middleware.CurrentToken(ctx)
	if token == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(a.tokenTTL)
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated staff user and their scope.
func (a *AuthController) Me(ctx *gin.Context) {
	staff := middleware.CurrentStaff(ctx)
	if staff == nil {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	utils.Success(ctx, staffResponse(*staff))
}

func staffResponse(staff models.StaffUser) gin.H {
	resp := gin.H{
		"id":           staff.ID,
		"username":     staff.Username,
		"is_superuser": staff.IsSuperuser,
		"active":       staff.Active,
		"created_at":   staff.CreatedAt,
	}
	sc := scope.For(&staff)
	resp["scope"] = sc.Kind.String()
	if sc.Kind == scope.Tenant {
		resp["university_id"] = sc.UniversityID
	}
	return resp
}
