package middleware

import (
	"time"

	"todo-web/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger is a middleware that logs HTTP requests with detailed information
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// Process request
		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		logEntry := logging.Logger.WithFields(logrus.Fields{
			"client_ip":     c.ClientIP(),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"query":         c.Request.URL.RawQuery,
			"status":        statusCode,
			"latency_ms":    latency.Milliseconds(),
			"response_size": c.Writer.Size(),
		})

		if requestID := GetRequestID(c); requestID != "" {
			logEntry = logEntry.WithField("request_id", requestID)
		}

		if userAgent := c.GetHeader("User-Agent"); userAgent != "" {
			logEntry = logEntry.WithField("user_agent", userAgent)
		}

		if len(c.Errors) > 0 {
			logEntry = logEntry.WithField("errors", c.Errors.String())
		}

		if statusCode == 429 {
			logEntry = logEntry.WithField("rate_limited", true)
		}

		// Log at appropriate level based on status code
		switch {
		case statusCode >= 500:
			logEntry.Error("Server error")
		case statusCode >= 400:
			logEntry.Warn("Client error")
		case statusCode >= 300:
			logEntry.Info("Redirect")
		default:
			logEntry.Info("Request completed")
		}
	}
}
