// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"invoicer/internal/core/id"
)

// UserContext contains the authenticated account owner.
// UserID doubles as the owner of every scoped row; see GetOwnerID.
type UserContext struct {
	UserID    string
	UserName  string
	Email     string
	SessionID string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetOwnerID returns the authenticated user as a typed owner ID.
// ok is false for anonymous requests or malformed subjects.
func GetOwnerID(ctx context.Context) (ownerID id.ID, ok bool) {
	u := GetUser(ctx)
	if u == nil || u.UserID == "" {
		return id.Nil(), false
	}
	parsed, err := id.Parse(u.UserID)
	if err != nil {
		return id.Nil(), false
	}
	return parsed, true
}
