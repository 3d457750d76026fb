package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"invoicer/internal/core/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// MapError translates driver errors into AppErrors.
// entity names the row kind for the message; field is reported for unique violations.
func MapError(err error, entity, field string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicate(entity, field, pgErr.ConstraintName).WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewConflict(entity + " is referenced by other records").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgCheckViolation:
			return apperror.NewValidation(entity+" violates "+pgErr.ConstraintName).WithCause(err)
		case pgNumericOutOfRange:
			return apperror.NewValidation(entity + " amount is out of range").WithCause(err)
		}
	}
	return apperror.NewInternal(err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsNoRows reports whether err is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
