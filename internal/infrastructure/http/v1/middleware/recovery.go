package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/pkg/logger"
)

// Recovery turns a panic into a 500 response.
// The stack is logged and never sent to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"error", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": map[string]any{"request_id": c.GetString("request_id")},
			})
		}()
		c.Next()
	}
}
