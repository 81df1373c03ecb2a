package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"todo-web/internal/logging"

	"github.com/gin-gonic/gin"
)

// CORSConfig holds CORS configuration. The page itself is same-origin, so
// this only matters for API clients served from elsewhere.
type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string // List of allowed origins, or ["*"] for all
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int // Preflight cache duration in seconds
}

// NewCORSConfigFromEnv creates CORS config from environment variables
func NewCORSConfigFromEnv() *CORSConfig {
	return &CORSConfig{
		Enabled:          getEnvBool("CORS_ENABLED", false),
		AllowedOrigins:   parseCommaSeparated(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AllowedMethods:   parseCommaSeparated(getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
		AllowedHeaders:   parseCommaSeparated(getEnv("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Accept,X-Request-ID")),
		ExposeHeaders:    parseCommaSeparated(getEnv("CORS_EXPOSE_HEADERS", "Content-Length,Content-Type,X-Request-ID")),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}
}

// CORS middleware handles Cross-Origin Resource Sharing
func CORS(config *CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !config.Enabled || origin == "" {
			c.Next()
			return
		}

		if !isOriginAllowed(origin, config.AllowedOrigins) {
			logging.Logger.WithFields(map[string]interface{}{
				"client_ip": c.ClientIP(),
				"origin":    origin,
				"path":      c.Request.URL.Path,
			}).Warn("CORS request from disallowed origin")
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		if config.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if len(config.ExposeHeaders) > 0 {
			c.Header("Access-Control-Expose-Headers", strings.Join(config.ExposeHeaders, ", "))
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
			c.Header("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
			c.Header("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// isOriginAllowed checks if an origin is in the allowed list.
// Entries may be "*", an exact origin, or "*.example.com".
func isOriginAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		switch {
		case a == "*", a == origin:
			return true
		case strings.HasPrefix(a, "*."):
			if strings.HasSuffix(origin, a[1:]) {
				return true
			}
		}
	}
	return false
}
