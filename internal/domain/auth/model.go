// Package auth provides registration, login and the business profile of an account owner.
package auth

import (
	"context"
	"io"
	"strings"
	"time"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
)

// User is an account owner and the business printed on its documents.
// Users are never hard deleted.
type User struct {
	ID           id.ID  `db:"id" json:"id"`
	UserName     string `db:"user_name" json:"userName"`
	Email        string `db:"email" json:"email"`
	PhoneNo      string `db:"phone_no" json:"phoneNo"`
	PasswordHash string `db:"password_hash" json:"-"`

	BusinessName string `db:"business_name" json:"businessName"`
	Slogan       string `db:"slogan" json:"slogan"`
	Website      string `db:"website" json:"website,omitempty"`
	GSTNo        string `db:"gst_no" json:"gstNo"`
	NTNNo        string `db:"ntn_no" json:"ntnNo"`
	AddressID    id.ID  `db:"address_id" json:"addressId"`

	LogoURL  string `db:"logo_url" json:"logoUrl,omitempty"`
	StampURL string `db:"stamp_url" json:"stampUrl,omitempty"`
	SignURL  string `db:"sign_url" json:"signUrl,omitempty"`

	IsActive            bool       `db:"is_active" json:"isActive"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	Version   int       `db:"version" json:"version"`

	// Loaded relations
	Address *Address `db:"-" json:"address,omitempty"`
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	if u.UserName == "" {
		return apperror.NewValidation("user name is required").WithDetail("field", "userName")
	}
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if id.IsNil(u.AddressID) {
		return apperror.NewValidation("address is required").WithDetail("field", "address")
	}
	return nil
}

// IsLocked returns true if account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks if user can login.
func (u *User) CanLogin() error {
	if !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

// Address is a postal address shared by every user registered at it.
// Addresses are deduplicated on all five fields.
type Address struct {
	ID        id.ID     `db:"id" json:"id"`
	Landmark  string    `db:"landmark" json:"landmark"`
	Street    string    `db:"street" json:"street"`
	Area      string    `db:"area" json:"area"`
	City      string    `db:"city" json:"city"`
	Country   string    `db:"country" json:"country"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason string     `db:"revoked_reason"`
	UserAgent     string     `db:"user_agent"`
	IPAddress     string     `db:"ip_address"`
}

// IsValid checks if refresh token is valid.
func (t *RefreshToken) IsValid() bool {
	if t.RevokedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	TokenType        string    `json:"tokenType"`
}

// Credentials for login. Login is an email or a user name.
type Credentials struct {
	Login     string
	Password  string
	UserAgent string
	IPAddress string
}

// RegisterRequest for user registration.
type RegisterRequest struct {
	UserName     string
	BusinessName string
	Slogan       string
	Email        string
	PhoneNo      string
	Password     string
	GSTNo        string
	NTNNo        string
	Website      string
	Landmark     string
	Street       string
	Area         string
	City         string
	Country      string
}

// normalize trims every field and lower-cases the identities.
func (r RegisterRequest) normalize() RegisterRequest {
	trim := strings.TrimSpace
	return RegisterRequest{
		UserName:     strings.ToLower(trim(r.UserName)),
		BusinessName: trim(r.BusinessName),
		Slogan:       trim(r.Slogan),
		Email:        strings.ToLower(trim(r.Email)),
		PhoneNo:      trim(r.PhoneNo),
		Password:     r.Password,
		GSTNo:        trim(r.GSTNo),
		NTNNo:        trim(r.NTNNo),
		Website:      trim(r.Website),
		Landmark:     trim(r.Landmark),
		Street:       trim(r.Street),
		Area:         trim(r.Area),
		City:         trim(r.City),
		Country:      trim(r.Country),
	}
}

// Asset is an uploaded branding picture.
type Asset struct {
	Filename string
	Body     io.Reader
}

// BrandingUpload replaces any of the document branding pictures.
type BrandingUpload struct {
	Logo  *Asset
	Stamp *Asset
	Sign  *Asset
}
