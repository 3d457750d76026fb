package dto

import (
	"time"

	"invoicer/internal/domain/auth"
)

// --- Request DTOs ---

// RegisterRequest for user registration.
type RegisterRequest struct {
	UserName     string `json:"userName" binding:"required,min=3,max=50"`
	BusinessName string `json:"businessName" binding:"required,max=200"`
	Slogan       string `json:"slogan" binding:"required,max=200"`
	Email        string `json:"email" binding:"required,email"`
	PhoneNo      string `json:"phoneNo" binding:"required"`
	Password     string `json:"password" binding:"required,strongpassword"`
	GSTNo        string `json:"gstNo" binding:"max=50"`
	NTNNo        string `json:"ntnNo" binding:"max=50"`
	Website      string `json:"website" binding:"omitempty,url"`
	Landmark     string `json:"landmark"`
	Street       string `json:"street" binding:"required"`
	Area         string `json:"area" binding:"required"`
	City         string `json:"city" binding:"required"`
	Country      string `json:"country" binding:"required"`
}

// ToAuthRequest converts to domain request.
func (r *RegisterRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		UserName:     r.UserName,
		BusinessName: r.BusinessName,
		Slogan:       r.Slogan,
		Email:        r.Email,
		PhoneNo:      r.PhoneNo,
		Password:     r.Password,
		GSTNo:        r.GSTNo,
		NTNNo:        r.NTNNo,
		Website:      r.Website,
		Landmark:     r.Landmark,
		Street:       r.Street,
		Area:         r.Area,
		City:         r.City,
		Country:      r.Country,
	}
}

// LoginRequest for user login. Login accepts an email or a user name.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials(userAgent, ip string) auth.Credentials {
	return auth.Credentials{
		Login:     r.Login,
		Password:  r.Password,
		UserAgent: userAgent,
		IPAddress: ip,
	}
}

// RefreshTokenRequest for token refresh. The cookie is used when the body is empty.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// --- Response DTOs ---

// TokenResponse represents token pair response.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// FromTokenPair creates response from domain token pair.
func FromTokenPair(tp *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  tp.AccessToken,
		RefreshToken: tp.RefreshToken,
		ExpiresAt:    tp.ExpiresAt,
		TokenType:    tp.TokenType,
	}
}

// AddressResponse is the postal address of a user.
type AddressResponse struct {
	Landmark string `json:"landmark,omitempty"`
	Street   string `json:"street"`
	Area     string `json:"area"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// UserResponse represents user in API response.
type UserResponse struct {
	ID           string           `json:"id"`
	UserName     string           `json:"userName"`
	Email        string           `json:"email"`
	PhoneNo      string           `json:"phoneNo"`
	BusinessName string           `json:"businessName"`
	Slogan       string           `json:"slogan"`
	Website      string           `json:"website,omitempty"`
	GSTNo        string           `json:"gstNo,omitempty"`
	NTNNo        string           `json:"ntnNo,omitempty"`
	LogoURL      string           `json:"logoUrl,omitempty"`
	StampURL     string           `json:"stampUrl,omitempty"`
	SignURL      string           `json:"signUrl,omitempty"`
	Address      *AddressResponse `json:"address,omitempty"`
	LastLoginAt  *time.Time       `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// FromUser creates response from domain user.
func FromUser(u *auth.User) *UserResponse {
	resp := &UserResponse{
		ID:           u.ID.String(),
		UserName:     u.UserName,
		Email:        u.Email,
		PhoneNo:      u.PhoneNo,
		BusinessName: u.BusinessName,
		Slogan:       u.Slogan,
		Website:      u.Website,
		GSTNo:        u.GSTNo,
		NTNNo:        u.NTNNo,
		LogoURL:      u.LogoURL,
		StampURL:     u.StampURL,
		SignURL:      u.SignURL,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
	if a := u.Address; a != nil {
		resp.Address = &AddressResponse{
			Landmark: a.Landmark,
			Street:   a.Street,
			Area:     a.Area,
			City:     a.City,
			Country:  a.Country,
		}
	}
	return resp
}

// LoginResponse includes tokens and user info.
type LoginResponse struct {
	Tokens *TokenResponse `json:"tokens"`
	User   *UserResponse  `json:"user"`
}
