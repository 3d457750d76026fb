// Package handlers provides HTTP request handlers.
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"invoicer/internal/core/apperror"
	"invoicer/internal/domain/auth"
	"invoicer/internal/infrastructure/http/v1/dto"
	"invoicer/internal/infrastructure/http/v1/middleware"
	"invoicer/internal/infrastructure/media"
)

// RefreshTokenCookie carries the refresh token for browser clients.
const RefreshTokenCookie = "refreshToken"

// CookieConfig controls the auth cookies set on login and refresh.
type CookieConfig struct {
	Secure     bool
	Domain     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultCookieConfig keeps the access cookie for a day and the refresh cookie for ten.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		AccessTTL:  24 * time.Hour,
		RefreshTTL: 10 * 24 * time.Hour,
	}
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
	cookies CookieConfig
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
		cookies:     cookies,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromUser(user))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(c.Request.Context(), req.ToCredentials(c.Request.UserAgent(), c.ClientIP()))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setTokenCookies(c, tokens)
	h.OK(c, dto.LoginResponse{
		Tokens: dto.FromTokenPair(tokens),
		User:   dto.FromUser(user),
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(RefreshTokenCookie)
	}
	if req.RefreshToken == "" {
		h.Error(c, apperror.NewUnauthorized("refresh token is required"))
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.setTokenCookies(c, tokens)
	h.OK(c, dto.FromTokenPair(tokens))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context()); err != nil {
		h.Error(c, err)
		return
	}

	h.clearTokenCookies(c)
	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

// UpdateBranding handles PATCH /auth/branding (multipart logo, stamp, sign).
func (h *AuthHandler) UpdateBranding(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 3*media.MaxUploadBytes+1<<20)

	var upload auth.BrandingUpload
	slots := []struct {
		field string
		dst   **auth.Asset
	}{
		{"logo", &upload.Logo},
		{"stamp", &upload.Stamp},
		{"sign", &upload.Sign},
	}
	for _, slot := range slots {
		fh, err := c.FormFile(slot.field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			h.Error(c, apperror.NewValidation("invalid multipart body").WithDetail("field", slot.field))
			return
		}
		file, err := fh.Open()
		if err != nil {
			h.Error(c, apperror.NewValidation("cannot read upload").WithDetail("field", slot.field))
			return
		}
		defer closeFile(file)
		*slot.dst = &auth.Asset{Filename: fh.Filename, Body: file}
	}

	user, err := h.service.UpdateBranding(c.Request.Context(), upload)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromUser(user))
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, tokens *auth.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken,
		int(h.cookies.AccessTTL.Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, tokens.RefreshToken,
		int(h.cookies.RefreshTTL.Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
}

func closeFile(f multipart.File) {
	_ = f.Close()
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.Refresh)

	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
	protected.PATCH("/branding", h.UpdateBranding)
}
