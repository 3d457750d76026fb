// Package id provides UUIDv7 identifiers for users, items, customers and documents.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7. Time ordering keeps document lists sortable by id.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// ParseOptional parses s when it is non-blank and returns nil otherwise.
func ParseOptional(s string) (*ID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}
