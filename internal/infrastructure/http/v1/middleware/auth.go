// Package middleware provides HTTP middleware for the invoicing API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	appctx "invoicer/internal/core/context"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "accessToken"

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// bearerToken returns the token from the Authorization header, falling back to the cookie.
func bearerToken(c *gin.Context) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", "invalid authorization header format"
		}
		return strings.TrimSpace(parts[1]), ""
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie, ""
	}
	return "", "missing access token"
}

// Auth middleware validates JWT tokens and populates user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			abortUnauthorized(c, problem)
			return
		}

		user, err := validator.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", user.UserID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
