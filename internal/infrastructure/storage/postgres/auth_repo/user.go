// Package auth_repo provides PostgreSQL implementations for auth repositories.
package auth_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/auth"
	"invoicer/internal/infrastructure/storage/postgres"
)

var userColumns = postgres.ExtractDBColumns[auth.User]()

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txManager *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *UserRepo) insertQuery(user *auth.User) squirrel.InsertBuilder {
	return builder().Insert("users").SetMap(postgres.StructToMap(user))
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	sql, args, err := r.insertQuery(user).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "user", "userName")
	}
	return nil
}

func (r *UserRepo) get(ctx context.Context, where squirrel.Sqlizer, key string) (*auth.User, error) {
	sql, args, err := builder().Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var user auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.get(ctx, squirrel.Eq{"id": userID}, userID.String())
}

// GetByLogin retrieves user by email or user name.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*auth.User, error) {
	login = strings.ToLower(login)
	return r.get(ctx, squirrel.Or{squirrel.Eq{"email": login}, squirrel.Eq{"user_name": login}}, login)
}

func (r *UserRepo) updateQuery(user *auth.User) squirrel.UpdateBuilder {
	return builder().Update("users").
		Set("business_name", user.BusinessName).
		Set("slogan", user.Slogan).
		Set("website", user.Website).
		Set("gst_no", user.GSTNo).
		Set("ntn_no", user.NTNNo).
		Set("logo_url", user.LogoURL).
		Set("stamp_url", user.StampURL).
		Set("sign_url", user.SignURL).
		Set("is_active", user.IsActive).
		Set("last_login_at", user.LastLoginAt).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": user.ID, "version": user.Version})
}

// Update updates user data with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	sql, args, err := r.updateQuery(user).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}
	user.Version++
	return nil
}

// ExistsIdentity checks whether any of the identities is taken.
func (r *UserRepo) ExistsIdentity(ctx context.Context, userName, email, phone string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE user_name = $1 OR email = $2 OR phone_no = $3)`

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, query, userName, email, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	return exists, nil
}

var _ auth.UserRepository = (*UserRepo)(nil)
