package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds environment driven configuration values.
// Secrets (JWT_SECRET, ORS_KEY, SESSION_SECRET, DB_PASSWORD) have no defaults in code.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	AdminTokenTTLHours int
	RateLimitPerMinute int
	AllowedOrigins     []string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Templates and static assets
	TemplatesGlob string
	StaticDir     string
	// Database; DBDriver selects the embedded (sqlite) or a networked backend
	DBDriver    string
	DBPath      string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	// Route cache backend: "memory" or "redis"
	CacheDriver   string
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Routing provider (openrouteservice)
	ORSKey            string
	ORSBaseURL        string
	ORSProfile        string
	RoutingTimeoutSec int
	RouteCacheTTLSec  int
	// Visitor sessions
	SessionSecret          string
	SessionMaxAgeSec       int
	SessionSecure          bool
	TrackingSkipPrefixes   []string
	SiteVisitRetentionDays int
	// Uploaded media (university logos, building photos/icons)
	MediaRoot   string
	MediaURL    string
	MaxUploadMB int
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// DefaultConfigPath is where Load looks for the optional JSON config file.
var DefaultConfigPath = filepath.Join("config", "config.json")

var cfg AppConfig
var loaded bool

// Load loads the application configuration. It should be called once during boot.
// Precedence: config/config.json -> defaults -> environment variable overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	c, err := build(DefaultConfigPath)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func build(path string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	if err := applyEnvOverrides(&c); err != nil {
		return c, err
	}
	if c.JWTSecret == "" {
		return c, errors.New("JWT_SECRET must be set in environment variables")
	}
	if c.SessionSecret == "" {
		// Sessions only carry an anonymous visitor key, so borrowing the JWT secret is acceptable.
		c.SessionSecret = c.JWTSecret
	}
	return c, nil
}

// EmbeddedDB reports whether the sqlite backend is selected.
func (c AppConfig) EmbeddedDB() bool {
	return c.DBDriver == "sqlite"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// loadJSONConfig reads the grouped JSON file into out if present. Returns error only for invalid JSON.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if f, ok := m[key].(float64); ok {
			return int(f)
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		b, _ := m[key].(bool)
		return b
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		out.AdminTokenTTLHours = getInt(app, "AdminTokenTTLHours")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		out.AllowedOrigins = getStringSlice(app, "AllowedOrigins")
		out.TemplatesGlob = getString(app, "TemplatesGlob")
		out.StaticDir = getString(app, "StaticDir")
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DBPath = getString(dbs, "Path")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
		out.DBSSLMode = getString(dbs, "SSLMode")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.CacheDriver = getString(rds, "CacheDriver")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if rt, ok := raw["routing"].(map[string]any); ok {
		out.ORSKey = getString(rt, "APIKey")
		out.ORSBaseURL = getString(rt, "BaseURL")
		out.ORSProfile = getString(rt, "Profile")
		out.RoutingTimeoutSec = getInt(rt, "TimeoutSec")
		out.RouteCacheTTLSec = getInt(rt, "CacheTTLSec")
	}

	if ss, ok := raw["session"].(map[string]any); ok {
		out.SessionSecret = getString(ss, "Secret")
		out.SessionMaxAgeSec = getInt(ss, "MaxAgeSec")
		out.SessionSecure = getBool(ss, "Secure")
		out.TrackingSkipPrefixes = getStringSlice(ss, "SkipPrefixes")
		out.SiteVisitRetentionDays = getInt(ss, "RetentionDays")
	}

	if md, ok := raw["media"].(map[string]any); ok {
		out.MediaRoot = getString(md, "Root")
		out.MediaURL = getString(md, "URL")
		out.MaxUploadMB = getInt(md, "MaxUploadMB")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}

	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8000"
	}
	if c.AdminTokenTTLHours == 0 {
		c.AdminTokenTTLHours = 12
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.TemplatesGlob == "" {
		c.TemplatesGlob = "templates/*.html"
	}
	if c.StaticDir == "" {
		c.StaticDir = "./static"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "sqlite"
	}
	if c.DBPath == "" {
		c.DBPath = "unimap.db"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "unimap"
	}
	if c.DBName == "" {
		c.DBName = "unimap"
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "require"
	}
	if c.CacheDriver == "" {
		c.CacheDriver = "memory"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.ORSBaseURL == "" {
		c.ORSBaseURL = "https://api.openrouteservice.org"
	}
	if c.ORSProfile == "" {
		c.ORSProfile = "foot-walking"
	}
	if c.RoutingTimeoutSec == 0 {
		c.RoutingTimeoutSec = 10
	}
	if c.RouteCacheTTLSec == 0 {
		c.RouteCacheTTLSec = 600
	}
	if c.SessionMaxAgeSec == 0 {
		c.SessionMaxAgeSec = 14 * 24 * 3600
	}
	if len(c.TrackingSkipPrefixes) == 0 {
		c.TrackingSkipPrefixes = []string{"/admin/", "/static/", "/media/", "/metrics", "/healthz"}
	}
	if c.SiteVisitRetentionDays == 0 {
		c.SiteVisitRetentionDays = 180
	}
	if c.MediaRoot == "" {
		c.MediaRoot = "./media"
	}
	if c.MediaURL == "" {
		c.MediaURL = "/media"
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) error {
	strs := map[string]*string{
		"APP_PORT":       &c.AppPort,
		"JWT_SECRET":     &c.JWTSecret,
		"GIN_MODE":       &c.GinMode,
		"GIN_PATH":       &c.GinPath,
		"TEMPLATES_GLOB": &c.TemplatesGlob,
		"STATIC_DIR":     &c.StaticDir,
		"DB_DRIVER":      &c.DBDriver,
		"DB_PATH":        &c.DBPath,
		"DATABASE_URI":   &c.DatabaseURI,
		"DB_HOST":        &c.DBHost,
		"DB_PORT":        &c.DBPort,
		"DB_USER":        &c.DBUser,
		"DB_PASSWORD":    &c.DBPassword,
		"DB_NAME":        &c.DBName,
		"DB_SSLMODE":     &c.DBSSLMode,
		"CACHE_DRIVER":   &c.CacheDriver,
		"REDIS_HOST":     &c.RedisHost,
		"REDIS_PASSWORD": &c.RedisPassword,
		"ORS_KEY":        &c.ORSKey,
		"ORS_BASE_URL":   &c.ORSBaseURL,
		"ORS_PROFILE":    &c.ORSProfile,
		"SESSION_SECRET": &c.SessionSecret,
		"MEDIA_ROOT":     &c.MediaRoot,
		"MEDIA_URL":      &c.MediaURL,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_PATH":       &c.LogPath,
	}
	for key, dst := range strs {
		if v := getEnv(key, ""); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"ADMIN_TOKEN_TTL_HOURS":     &c.AdminTokenTTLHours,
		"RATE_LIMIT_PER_MINUTE":     &c.RateLimitPerMinute,
		"REDIS_PORT":                &c.RedisPort,
		"REDIS_DB":                  &c.RedisDB,
		"ROUTING_TIMEOUT_SEC":       &c.RoutingTimeoutSec,
		"ROUTE_CACHE_TTL_SEC":       &c.RouteCacheTTLSec,
		"SESSION_MAX_AGE_SEC":       &c.SessionMaxAgeSec,
		"SITE_VISIT_RETENTION_DAYS": &c.SiteVisitRetentionDays,
		"MAX_UPLOAD_MB":             &c.MaxUploadMB,
		"LOG_MAX_SIZE_MB":           &c.LogMaxSizeMB,
		"LOG_MAX_BACKUPS":           &c.LogMaxBackups,
		"LOG_MAX_AGE_DAYS":          &c.LogMaxAgeDays,
	}
	for key, dst := range ints {
		if v := getEnv(key, ""); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return errors.New("invalid integer value for " + key + ": " + v)
			}
			*dst = i
		}
	}

	if v := getEnv("SESSION_SECURE", ""); v != "" {
		c.SessionSecure = v == "true"
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	c.AllowedOrigins = readListEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	c.TrackingSkipPrefixes = readListEnv("TRACKING_SKIP_PREFIXES", c.TrackingSkipPrefixes)
	return nil
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
