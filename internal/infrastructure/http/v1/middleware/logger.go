package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"invoicer/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// It also binds log to the request context for the layers below.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithContext(c.Request.Context())
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "error", errs)
		}

		switch {
		case status >= 500:
			entry.Errorw("http request", fields...)
		case status >= 400:
			entry.Warnw("http request", fields...)
		default:
			entry.Infow("http request", fields...)
		}
	}
}
