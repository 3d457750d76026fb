package auth

import (
	"context"
	"io"

	"invoicer/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByLogin retrieves user by lower-cased email or user name.
	GetByLogin(ctx context.Context, login string) (*User, error)

	// Update updates user data.
	Update(ctx context.Context, user *User) error

	// ExistsIdentity reports whether the user name, email or phone is taken.
	ExistsIdentity(ctx context.Context, userName, email, phone string) (bool, error)
}

// AddressRepository stores deduplicated addresses.
type AddressRepository interface {
	// Upsert returns the stored address equal to a, inserting it when absent.
	Upsert(ctx context.Context, a *Address) (*Address, error)

	GetByID(ctx context.Context, addressID id.ID) (*Address, error)
}

// TokenRepository defines token storage operations.
type TokenRepository interface {
	// SaveRefreshToken saves a refresh token.
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves refresh token by hash.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeRefreshToken revokes a refresh token.
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error

	// RevokeAllUserTokens revokes all tokens for a user.
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error
}

// CounterProvisioner creates the document counters of a new owner.
type CounterProvisioner interface {
	Provision(ctx context.Context, ownerID id.ID) error
}

// AssetPublisher stores branding pictures.
type AssetPublisher interface {
	Publish(ctx context.Context, key string, src io.Reader) (url string, err error)
	Remove(ctx context.Context, url string) error
}
