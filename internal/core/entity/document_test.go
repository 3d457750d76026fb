package entity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/id"
)

func TestDocument_Validate(t *testing.T) {
	ctx := context.Background()

	doc := NewDocument(id.Nil())
	err := doc.Validate(ctx)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "ownerId", appErr.Details["field"])

	doc = NewDocument(id.New())
	err = doc.Validate(ctx)
	require.Error(t, err)
	appErr, _ = apperror.AsAppError(err)
	assert.Equal(t, "number", appErr.Details["field"])

	doc.Number = "INV-00001"
	assert.NoError(t, doc.Validate(ctx))
}

func TestBaseCatalog_Touch(t *testing.T) {
	c := NewBaseCatalog(id.New())
	before := c.UpdatedAt
	c.Touch()
	assert.Equal(t, 2, c.Version)
	assert.False(t, c.UpdatedAt.Before(before))
}

func TestOwned_IsOwnedBy(t *testing.T) {
	owner := id.New()
	o := Owned{OwnerID: owner}
	assert.True(t, o.IsOwnedBy(owner))
	assert.False(t, o.IsOwnedBy(id.New()))
}
