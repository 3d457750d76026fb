package auth_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/id"
	"invoicer/internal/domain/auth"
)

func TestUserColumnsSkipRelations(t *testing.T) {
	assert.Contains(t, userColumns, "user_name")
	assert.Contains(t, userColumns, "address_id")
	assert.NotContains(t, userColumns, "address")
}

func TestUserUpdateQuery_OptimisticLock(t *testing.T) {
	r := &UserRepo{}
	u := &auth.User{ID: id.New(), Version: 3, LogoURL: "https://cdn/logo.png"}

	sql, args, err := r.updateQuery(u).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "version = version + 1")
	assert.Contains(t, sql, "WHERE id = $")
	assert.Contains(t, sql, "version = $")
	assert.NotContains(t, sql, "password_hash")
	assert.Contains(t, args, 3)
	assert.Contains(t, args, "https://cdn/logo.png")
}

func TestUpsertAddressQuery(t *testing.T) {
	a := &auth.Address{ID: id.New(), Landmark: "Park", Street: "Main", Area: "Gulberg", City: "Lahore", Country: "Pakistan"}

	sql, args, err := upsertAddressQuery(a).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO addresses")
	assert.Contains(t, sql, "ON CONFLICT (landmark, street, area, city, country) DO UPDATE")
	assert.Contains(t, sql, "RETURNING id, landmark, street, area, city, country, created_at")
	assert.Len(t, args, len(addressColumns))
}
