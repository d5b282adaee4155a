package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/unimap/unimap/models"
	"github.com/unimap/unimap/scope"
	"github.com/unimap/unimap/utils"
)

const (
	// ContextStaffKey stores the authenticated *models.StaffUser.
	ContextStaffKey = "staff"
	// ContextScopeKey stores the scope.Scope derived from the staff user.
	ContextScopeKey = "scope"
	// ContextTokenKey stores the raw bearer token.
	ContextTokenKey = "token"
	// ContextTokenExpiryKey stores the token expiry as time.Time.
	ContextTokenExpiryKey = "token_expiry"
)

// AdminRequired authenticates staff by JWT and resolves their scope.
func AdminRequired(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		var staff models.StaffUser
		err = db.WithContext(ctx.Request.Context()).Preload("CampusAdmin").First(&staff, claims.StaffID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(ctx, http.StatusUnauthorized, 40106, "staff user not found")
			} else {
				utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to load staff user")
			}
			ctx.Abort()
			return
		}
		if !staff.Active {
			utils.Error(ctx, http.StatusForbidden, 40301, "staff account disabled")
			ctx.Abort()
			return
		}

		ctx.Set(ContextStaffKey, &staff)
		ctx.Set(ContextScopeKey, scope.For(&staff))
		ctx.Set(ContextTokenKey, tokenString)
		if claims.ExpiresAt != nil {
			ctx.Set(ContextTokenExpiryKey, claims.ExpiresAt.Time)
		}
		ctx.Next()
	}
}

// SuperuserRequired rejects any identity without an unrestricted scope.
// It must run after AdminRequired.
func SuperuserRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !CurrentScope(ctx).IsSuperuser() {
			utils.Error(ctx, http.StatusForbidden, 40302, "superuser required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentStaff returns the authenticated staff user or nil.
func CurrentStaff(ctx *gin.Context) *models.StaffUser {
	if v, ok := ctx.Get(ContextStaffKey); ok {
		if staff, ok := v.(*models.StaffUser); ok {
			return staff
		}
	}
	return nil
}

// CurrentScope returns the request scope; unauthenticated requests see nothing.
func CurrentScope(ctx *gin.Context) scope.Scope {
	if v, ok := ctx.Get(ContextScopeKey); ok {
		if s, ok := v.(scope.Scope); ok {
			return s
		}
	}
	return scope.Scope{Kind: scope.None}
}

// CurrentToken returns the bearer token and its expiry.
func CurrentToken(ctx *gin.Context) (string, time.Time) {
	var expiry time.Time
	if v, ok := ctx.Get(ContextTokenExpiryKey); ok {
		expiry, _ = v.(time.Time)
	}
	return ctx.GetString(ContextTokenKey), expiry
}
