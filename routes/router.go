package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/unimap/unimap/config"
	"github.com/unimap/unimap/controllers"
	"github.com/unimap/unimap/middleware"
	"github.com/unimap/unimap/routing"
	"github.com/unimap/unimap/utils"
	"github.com/unimap/unimap/visits"
)

// Deps are the collaborators the router wires into controllers.
type Deps struct {
	Config config.AppConfig
	DB     *gorm.DB
	Cache  utils.Cache
	Ledger *visits.Ledger
	// Provider defaults to the openrouteservice client built from Config.
	Provider routing.Provider
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log and panic recovery go to their own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnw("gin logger unavailable, using default recovery", "err", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	ledger := deps.Ledger
	if ledger == nil {
		ledger = visits.NewLedger(deps.DB)
	}
	store := utils.NewSessionStore(cfg.SessionSecret, cfg.SessionMaxAgeSec, cfg.SessionSecure)
	r.Use(middleware.VisitTracker(store, ledger, cfg.TrackingSkipPrefixes))

	if cfg.TemplatesGlob != "" {
		r.LoadHTMLGlob(cfg.TemplatesGlob)
	}
	r.Static("/static", cfg.StaticDir)
	r.Static(strings.TrimRight(cfg.MediaURL, "/"), cfg.MediaRoot)

	r.GET("/healthz", func(ctx *gin.Context) {
		sqlDB, err := deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	provider := deps.Provider
	if provider == nil {
		provider = routing.NewClient(routing.ClientConfig{
			BaseURL: cfg.ORSBaseURL,
			APIKey:  cfg.ORSKey,
			Profile: cfg.ORSProfile,
			Timeout: time.Duration(cfg.RoutingTimeoutSec) * time.Second,
		})
	}
	cache := deps.Cache
	if cache == nil {
		cache = utils.NewCache(nil)
	}
	routeService := routing.NewService(provider, cache, time.Duration(cfg.RouteCacheTTLSec)*time.Second)

	media := utils.MediaStore{
		Root:      cfg.MediaRoot,
		URLPrefix: cfg.MediaURL,
		MaxBytes:  int64(cfg.MaxUploadMB) << 20,
	}

	catalogController := controllers.NewCatalogController(deps.DB, ledger)
	routeController := controllers.NewRouteController(routeService)
	authController := controllers.NewAuthController(deps.DB, cfg.JWTSecret, time.Duration(cfg.AdminTokenTTLHours)*time.Hour)
	universityController := controllers.NewUniversityController(deps.DB, media)
	buildingController := controllers.NewBuildingController(deps.DB, media)
	statsController := controllers.NewStatsController(deps.DB, ledger)
	staffController := controllers.NewStaffController(deps.DB)

	api := r.Group("/api")
	api.GET("/buildings/", catalogController.ListBuildings)
	api.GET("/route/", middleware.RateLimit("route", cfg.RateLimitPerMinute), routeController.GetRoute)

	admin := r.Group("/admin/api")
	admin.POST("/login", middleware.AdminRateLimit("login", cfg.RateLimitPerMinute), authController.Login)

	protected := admin.Group("")
	protected.Use(middleware.AdminRequired(deps.DB, cfg.JWTSecret))
	protected.POST("/logout", authController.Logout)
	protected.GET("/me", authController.Me)
	protected.GET("/stats", statsController.GetStats)
	protected.GET("/daily-stats", statsController.ListDailyStats)
	protected.GET("/site-visits", statsController.ListSiteVisits)

	protected.GET("/universities", universityController.ListUniversities)
	protected.GET("/universities/:id", universityController.GetUniversity)
	protected.POST("/universities/:id/logo", universityController.UploadLogo)

	protected.GET("/buildings", buildingController.ListBuildings)
	protected.POST("/buildings", buildingController.CreateBuilding)
	protected.GET("/buildings/:id", buildingController.GetBuilding)
	protected.PUT("/buildings/:id", buildingController.UpdateBuilding)
	protected.DELETE("/buildings/:id", buildingController.DeleteBuilding)
	protected.POST("/buildings/:id/photo", buildingController.UploadPhoto)
	protected.POST("/buildings/:id/icon", buildingController.UploadIcon)

	superuser := protected.Group("")
	superuser.Use(middleware.SuperuserRequired())
	superuser.POST("/universities", universityController.CreateUniversity)
	superuser.PUT("/universities/:id", universityController.UpdateUniversity)
	superuser.DELETE("/universities/:id", universityController.DeactivateUniversity)
	superuser.DELETE("/universities/:id/purge", universityController.PurgeUniversity)
	superuser.GET("/staff", staffController.ListStaff)
	superuser.POST("/staff", staffController.CreateStaff)

	r.GET("/", catalogController.MapPage)
	r.GET("/:short_code/", catalogController.MapPage)

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/admin/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.APIError(ctx, http.StatusNotFound, "not found")
	})

	return r
}
