package orgauth_test

import (
	"context"
	"testing"

	orgauth "github.com/goliatone/go-orgauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminGuard_EmptyRegion(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	guard := orgauth.NewAdminGuard(store)

	violates, err := guard.WouldViolate(ctx, "Rennes", "")
	require.NoError(t, err)
	assert.False(t, violates)

	assert.NoError(t, guard.Check(ctx, "Rennes", ""))
}

func TestAdminGuard_RegionWithAdmin(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedUser(store, "adminren", orgauth.RoleAdmin, "Rennes", "pw")

	guard := orgauth.NewAdminGuard(store)

	violates, err := guard.WouldViolate(ctx, "Rennes", "")
	require.NoError(t, err)
	assert.True(t, violates)

	err = guard.Check(ctx, "Rennes", "")
	require.Error(t, err)
	assert.True(t, orgauth.IsInvariantViolation(err))
}

func TestAdminGuard_ExcludesSelf(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedUser(store, "adminren", orgauth.RoleAdmin, "Rennes", "pw")

	guard := orgauth.NewAdminGuard(store)

	// the region's own admin may be rewritten without tripping the guard
	violates, err := guard.WouldViolate(ctx, "Rennes", "adminren")
	require.NoError(t, err)
	assert.False(t, violates)
}

func TestAdminGuard_IgnoresNonAdmins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	seedUser(store, "jdoe", orgauth.RoleUser, "Rennes", "pw")
	seedUser(store, "sadmin", orgauth.RoleSuperAdmin, "Paris", "pw")

	guard := orgauth.NewAdminGuard(store)

	violates, err := guard.WouldViolate(ctx, "Rennes", "")
	require.NoError(t, err)
	assert.False(t, violates, "plain users do not occupy the admin slot")

	violates, err = guard.WouldViolate(ctx, "Paris", "")
	require.NoError(t, err)
	assert.False(t, violates, "the super admin does not occupy a regional slot")
}
