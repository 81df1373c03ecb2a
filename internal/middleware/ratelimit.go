package middleware

import (
	"net/http"
	"time"

	"todo-web/internal/logging"
	"todo-web/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int64
}

// NewRateLimitConfigFromEnv creates rate limit config from environment variables
func NewRateLimitConfigFromEnv() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
		RequestsPerMin: int64(getEnvInt("RATE_LIMIT_REQUESTS_PER_MIN", 120)),
	}
}

// GlobalRateLimiter limits every request per client IP
func GlobalRateLimiter(config *RateLimitConfig) gin.HandlerFunc {
	if !config.Enabled {
		logging.Logger.Info("Rate limiting is disabled")
		return passThrough
	}

	logging.Logger.Infof("Rate limiting enabled: %d requests per minute", config.RequestsPerMin)
	return newRateLimiter("global", config.RequestsPerMin)
}

// WriteRateLimiter applies a stricter limit to mutating routes
func WriteRateLimiter(config *RateLimitConfig) gin.HandlerFunc {
	if !config.Enabled {
		return passThrough
	}

	limit := config.RequestsPerMin / 2
	if limit < 1 {
		limit = 1
	}
	return newRateLimiter("write", limit)
}

func passThrough(c *gin.Context) {
	c.Next()
}

func newRateLimiter(limitType string, perMinute int64) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  perMinute,
	}
	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		logging.Logger.WithFields(map[string]interface{}{
			"client_ip":     c.ClientIP(),
			"path":          c.Request.URL.Path,
			"method":        c.Request.Method,
			"rate_limited":  true,
			"limit_type":    limitType,
			"limit_per_min": rate.Limit,
		}).Warn("Rate limit exceeded")

		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
			Code:    "RATE_LIMIT_EXCEEDED",
			Message: "Too many requests. Please try again later.",
			Details: map[string]interface{}{
				"retryAfter": int(rate.Period.Seconds()),
				"limit":      rate.Limit,
			},
		})
	}))
}
