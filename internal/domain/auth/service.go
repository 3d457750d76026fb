package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/core/tx"
	"invoicer/internal/domain"
	"invoicer/internal/domain/documents"
	"invoicer/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	RefreshTokenExpiry time.Duration
	// PhoneRegion is the default region for numbers without a country code.
	PhoneRegion string
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		RefreshTokenExpiry: 10 * 24 * time.Hour,
		PhoneRegion:        "PK",
	}
}

// Deps are the collaborators of the auth service. Assets is optional.
type Deps struct {
	Users     UserRepository
	Addresses AddressRepository
	Tokens    TokenRepository
	Counters  CounterProvisioner
	Assets    AssetPublisher
	TxManager tx.Manager
	JWT       *JWTService
}

// Service provides registration, authentication and the owner profile.
type Service struct {
	Deps
	config ServiceConfig
}

// NewService creates a new auth service.
func NewService(deps Deps, config ServiceConfig) *Service {
	return &Service{Deps: deps, config: config}
}

var _ documents.IssuerDirectory = (*Service)(nil)

// Register creates the user, its address and its document counters in one transaction.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req = req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(req.PhoneNo, s.config.PhoneRegion)
	if err != nil {
		return nil, err
	}

	exists, err := s.Users.ExistsIdentity(ctx, req.UserName, req.Email, phone)
	if err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("user already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           id.New(),
		UserName:     req.UserName,
		Email:        req.Email,
		PhoneNo:      phone,
		PasswordHash: string(passwordHash),
		BusinessName: req.BusinessName,
		Slogan:       req.Slogan,
		Website:      req.Website,
		GSTNo:        req.GSTNo,
		NTNNo:        req.NTNNo,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}

	err = s.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		addr, err := s.Addresses.Upsert(ctx, &Address{
			ID:        id.New(),
			Landmark:  req.Landmark,
			Street:    req.Street,
			Area:      req.Area,
			City:      req.City,
			Country:   req.Country,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("upsert address: %w", err)
		}
		user.AddressID = addr.ID
		user.Address = addr

		if err := user.Validate(ctx); err != nil {
			return err
		}
		if err := s.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := s.Counters.Provision(ctx, user.ID); err != nil {
			return fmt.Errorf("provision counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "user_name", user.UserName)
	return user, nil
}

// Login authenticates by email or user name and returns tokens.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	login := strings.ToLower(strings.TrimSpace(creds.Login))
	if login == "" || creds.Password == "" {
		return nil, nil, apperror.NewValidation("all fields are required")
	}

	user, err := s.Users.GetByLogin(ctx, login)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if uerr := s.Users.Update(ctx, user); uerr != nil {
			logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", uerr)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, user, creds.UserAgent, creds.IPAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin()
	if err := s.Users.Update(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID)
	return tokens, user, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new pair issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperror.NewUnauthorized("refresh token required")
	}

	token, err := s.Tokens.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}
	if !token.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.Users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}
	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = s.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Tokens.RevokeRefreshToken(ctx, token.ID, "refreshed"); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		pair, err = s.generateTokenPair(ctx, user, token.UserAgent, token.IPAddress)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes every refresh token of the caller.
func (s *Service) Logout(ctx context.Context) error {
	userID, err := domain.RequireOwner(ctx)
	if err != nil {
		return err
	}
	if err := s.Tokens.RevokeAllUserTokens(ctx, userID, "logout"); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Me returns the caller with its address.
func (s *Service) Me(ctx context.Context) (*User, error) {
	userID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadUser(ctx, userID)
}

func (s *Service) loadUser(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, err
	}
	if !id.IsNil(user.AddressID) {
		addr, err := s.Addresses.GetByID(ctx, user.AddressID)
		if err != nil {
			return nil, fmt.Errorf("load address: %w", err)
		}
		user.Address = addr
	}
	return user, nil
}

// Issuer implements documents.IssuerDirectory.
func (s *Service) Issuer(ctx context.Context, ownerID id.ID) (*documents.Issuer, error) {
	user, err := s.loadUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	iss := &documents.Issuer{
		BusinessName: user.BusinessName,
		Email:        user.Email,
		Phone:        user.PhoneNo,
		Slogan:       user.Slogan,
		Website:      user.Website,
		GSTNo:        user.GSTNo,
		NTNNo:        user.NTNNo,
		LogoURL:      user.LogoURL,
		StampURL:     user.StampURL,
		SignURL:      user.SignURL,
	}
	if a := user.Address; a != nil {
		iss.Landmark, iss.Street, iss.Area, iss.City, iss.Country = a.Landmark, a.Street, a.Area, a.City, a.Country
	}
	return iss, nil
}

// UpdateBranding replaces the given branding pictures. New uploads are removed
// again when any step fails; replaced pictures are removed after the update.
func (s *Service) UpdateBranding(ctx context.Context, in BrandingUpload) (*User, error) {
	userID, err := domain.RequireOwner(ctx)
	if err != nil {
		return nil, err
	}
	if s.Assets == nil {
		return nil, apperror.NewValidation("uploads are not configured")
	}
	slots := []struct {
		name  string
		asset *Asset
		field func(*User) *string
	}{
		{"logo", in.Logo, func(u *User) *string { return &u.LogoURL }},
		{"stamp", in.Stamp, func(u *User) *string { return &u.StampURL }},
		{"sign", in.Sign, func(u *User) *string { return &u.SignURL }},
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var published, replaced []string
	rollback := func() {
		for _, url := range published {
			if err := s.Assets.Remove(context.WithoutCancel(ctx), url); err != nil {
				logger.Warn(ctx, "failed to remove uploaded asset", "url", url, "error", err)
			}
		}
	}

	for _, slot := range slots {
		if slot.asset == nil || slot.asset.Body == nil {
			continue
		}
		key := fmt.Sprintf("%s/branding/%s-%s%s", userID, slot.name, id.New(), strings.ToLower(path.Ext(slot.asset.Filename)))
		url, err := s.Assets.Publish(ctx, key, slot.asset.Body)
		if err != nil {
			rollback()
			return nil, err
		}
		published = append(published, url)
		if old := *slot.field(user); old != "" {
			replaced = append(replaced, old)
		}
		*slot.field(user) = url
	}
	if len(published) == 0 {
		return nil, apperror.NewValidation("at least one of logo, stamp or sign is required")
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.Users.Update(ctx, user); err != nil {
		rollback()
		return nil, err
	}

	for _, url := range replaced {
		if err := s.Assets.Remove(ctx, url); err != nil {
			logger.Warn(ctx, "failed to remove replaced asset", "url", url, "error", err)
		}
	}
	logger.Info(ctx, "branding updated", "user_id", userID, "uploaded", len(published))
	return user, nil
}

// generateTokenPair creates access and refresh tokens.
func (s *Service) generateTokenPair(ctx context.Context, user *User, userAgent, ip string) (*TokenPair, error) {
	accessToken, expiresAt, err := s.JWT.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshTokenRaw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	refreshToken := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ip,
	}
	if err := s.Tokens.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshTokenRaw,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refreshToken.ExpiresAt,
		TokenType:        "Bearer",
	}, nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
