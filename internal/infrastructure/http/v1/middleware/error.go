package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/pkg/logger"
)

// ErrorHandler renders the last error attached with c.Error as {code, message, details}.
// Causes are logged, never returned to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		err := c.Errors.Last().Err

		appErr, ok := apperror.AsAppError(err)
		if !ok && errors.Is(err, context.DeadlineExceeded) {
			appErr, ok = apperror.NewTimeout(err), true
		}
		if !ok {
			logger.Error(ctx, "unhandled error", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": map[string]any{
					"request_id": c.GetString("request_id"),
				},
			})
			return
		}

		switch {
		case appErr.HTTPStatus >= http.StatusInternalServerError:
			logger.Error(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
		case appErr.Err != nil:
			logger.Warn(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err)
		}

		c.JSON(appErr.HTTPStatus, gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": appErr.Details,
		})
	}
}
