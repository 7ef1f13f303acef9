package orgauth_test

import (
	"context"
	"testing"

	orgauth "github.com/goliatone/go-orgauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type directoryFixture struct {
	store   *memStore
	gateway *orgauth.Gateway
	users   *orgauth.UserManager
}

func newDirectoryFixture() *directoryFixture {
	cfg := newTestConfig()
	store := newMemStore()
	gateway := orgauth.NewGateway(store, cfg)
	registry := orgauth.NewRegistry(cfg)
	users := orgauth.NewUserManager(store, gateway.SessionManager(), registry, cfg)

	return &directoryFixture{store: store, gateway: gateway, users: users}
}

func (f *directoryFixture) loginAs(t *testing.T, login, role, region string) {
	t.Helper()
	seedUser(f.store, login, orgauth.Role(role), region, "pw!Aa1")
	_, err := f.gateway.Login(context.Background(), login, "pw!Aa1")
	require.NoError(t, err)
}

func TestUserManagerAdd_RequiresSession(t *testing.T) {
	f := newDirectoryFixture()

	_, err := f.users.Add(context.Background(), orgauth.NewUserInput{
		FirstName: "Jean", LastName: "Dupont", Role: orgauth.RoleUser, Region: "Rennes",
	})
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))
}

func TestUserManagerAdd_SuperAdminCreatesUser(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")

	account, err := f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Jean", LastName: "Dupont", Role: orgauth.RoleUser, Region: "Rennes",
	})
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.Equal(t, "jdupont", account.Login)
	assert.NotEmpty(t, account.Password)

	user, err := f.store.FindByLogin(ctx, "jdupont")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Jean", user.FirstName)
	assert.Equal(t, orgauth.RoleUser, user.Role)
	assert.Equal(t, "sadmin", user.CreatedBy)

	// the returned credentials authenticate
	_, err = f.gateway.Login(ctx, account.Login, account.Password)
	require.NoError(t, err)
}

func TestUserManagerAdd_AdminCreationRules(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")

	// super admin fills an empty admin slot
	_, err := f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Alice", LastName: "Martin", Role: orgauth.RoleAdmin, Region: "Rennes",
	})
	require.NoError(t, err)

	// a second admin in the same region is rejected
	_, err = f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Bruno", LastName: "Petit", Role: orgauth.RoleAdmin, Region: "Rennes",
	})
	require.Error(t, err)
	assert.True(t, orgauth.IsInvariantViolation(err))
}

func TestUserManagerAdd_RegionalAdminScope(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "adminren", "admin", "Rennes")

	// own region is fine
	_, err := f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Jean", LastName: "Dupont", Role: orgauth.RoleUser, Region: "Rennes",
	})
	require.NoError(t, err)

	// another region is not
	_, err = f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Marie", LastName: "Blanc", Role: orgauth.RoleUser, Region: "Nantes",
	})
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))

	// and admins are the super admin's business
	_, err = f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Paul", LastName: "Noir", Role: orgauth.RoleAdmin, Region: "Rennes",
	})
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))
}

func TestUserManagerAdd_PlainUserDenied(t *testing.T) {
	f := newDirectoryFixture()
	f.loginAs(t, "jdoe", "user", "Rennes")

	_, err := f.users.Add(context.Background(), orgauth.NewUserInput{
		FirstName: "Jean", LastName: "Dupont", Role: orgauth.RoleUser, Region: "Rennes",
	})
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))
}

func TestUserManagerAdd_UnknownRegion(t *testing.T) {
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")

	_, err := f.users.Add(context.Background(), orgauth.NewUserInput{
		FirstName: "Jean", LastName: "Dupont", Role: orgauth.RoleUser, Region: "Atlantis",
	})
	require.Error(t, err)
	assert.True(t, orgauth.IsNotFound(err))
}

func TestUserManagerAdd_LoginCollision(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")

	_, err := f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Jean", LastName: "Dupont", Role: orgauth.RoleUser, Region: "Rennes",
	})
	require.NoError(t, err)

	// Jacques Dupont derives the same login
	_, err = f.users.Add(ctx, orgauth.NewUserInput{
		FirstName: "Jacques", LastName: "Dupont", Role: orgauth.RoleUser, Region: "Nantes",
	})
	require.Error(t, err)
}

func TestUserManagerModify(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")

	update, err := orgauth.ParseUserUpdate("first_name", "Jeanne")
	require.NoError(t, err)
	require.NoError(t, f.users.Modify(ctx, "jdupont", update))

	user, err := f.store.FindByLogin(ctx, "jdupont")
	require.NoError(t, err)
	assert.Equal(t, "Jeanne", user.FirstName)
}

func TestUserManagerModify_UnknownUser(t *testing.T) {
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")

	update, err := orgauth.ParseUserUpdate("first_name", "Jeanne")
	require.NoError(t, err)

	err = f.users.Modify(context.Background(), "ghost", update)
	require.Error(t, err)
	assert.True(t, orgauth.IsNotFound(err))
}

func TestUserManagerModify_AdminScope(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "adminren", "admin", "Rennes")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")
	seedUser(f.store, "mblanc", orgauth.RoleUser, "Nantes", "pw")

	update, err := orgauth.ParseUserUpdate("last_name", "Durand")
	require.NoError(t, err)

	require.NoError(t, f.users.Modify(ctx, "jdupont", update))

	err = f.users.Modify(ctx, "mblanc", update)
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))

	// regional admins cannot mint other admins
	promote, err := orgauth.ParseUserUpdate("role", "admin")
	require.NoError(t, err)
	err = f.users.Modify(ctx, "jdupont", promote)
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))
}

func TestUserManagerModify_NoSuperAdminPromotion(t *testing.T) {
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")

	role := orgauth.RoleSuperAdmin
	err := f.users.Modify(context.Background(), "jdupont", orgauth.UserUpdate{Role: &role})
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))
}

func TestUserManagerModify_GuardsAdminRegionMove(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")
	seedUser(f.store, "adminren", orgauth.RoleAdmin, "Rennes", "pw")
	seedUser(f.store, "adminnan", orgauth.RoleAdmin, "Nantes", "pw")

	// moving the Rennes admin into Nantes would give Nantes two admins
	update, err := orgauth.ParseUserUpdate("region", "Nantes")
	require.NoError(t, err)
	err = f.users.Modify(ctx, "adminren", update)
	require.Error(t, err)
	assert.True(t, orgauth.IsInvariantViolation(err))

	// an empty slot accepts the move
	update, err = orgauth.ParseUserUpdate("region", "Grenoble")
	require.NoError(t, err)
	require.NoError(t, f.users.Modify(ctx, "adminren", update))
}

func TestUserManagerModify_PromotionIntoOccupiedRegion(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")
	seedUser(f.store, "adminren", orgauth.RoleAdmin, "Rennes", "pw")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")

	promote, err := orgauth.ParseUserUpdate("role", "admin")
	require.NoError(t, err)
	err = f.users.Modify(ctx, "jdupont", promote)
	require.Error(t, err)
	assert.True(t, orgauth.IsInvariantViolation(err))
}

func TestUserManagerDelete(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")

	require.NoError(t, f.users.Delete(ctx, "jdupont"))

	user, err := f.store.FindByLogin(ctx, "jdupont")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserManagerDelete_RevokesSessions(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()

	// victim signs in through their own gateway
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw!Aa1")
	victim := orgauth.NewGateway(f.store, newTestConfig())
	_, err := victim.Login(ctx, "jdupont", "pw!Aa1")
	require.NoError(t, err)
	require.True(t, victim.IsAuthenticated(ctx))

	f.loginAs(t, "sadmin", "super_admin", "Paris")
	require.NoError(t, f.users.Delete(ctx, "jdupont"))

	assert.False(t, victim.IsAuthenticated(ctx), "deletion revokes live sessions")
	assert.Equal(t, 0, f.store.sessionCount("jdupont"))
}

func TestUserManagerDelete_SuperAdminImmune(t *testing.T) {
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")

	err := f.users.Delete(context.Background(), "sadmin")
	require.Error(t, err)
	assert.False(t, orgauth.IsNotFound(err))
}

func TestUserManagerDelete_AdminScope(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "adminren", "admin", "Rennes")
	seedUser(f.store, "mblanc", orgauth.RoleUser, "Nantes", "pw")
	seedUser(f.store, "adminnan", orgauth.RoleAdmin, "Nantes", "pw")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")

	err := f.users.Delete(ctx, "mblanc")
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))

	err = f.users.Delete(ctx, "adminnan")
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))

	require.NoError(t, f.users.Delete(ctx, "jdupont"))
}

func TestUserManagerList(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")
	seedUser(f.store, "mblanc", orgauth.RoleUser, "Nantes", "pw")
	seedUser(f.store, "adminren", orgauth.RoleAdmin, "Rennes", "pw")

	all, err := f.users.List(ctx, orgauth.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	admins, err := f.users.List(ctx, orgauth.UserFilter{Role: orgauth.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "adminren", admins[0].Login)

	rennes, err := f.users.List(ctx, orgauth.UserFilter{Region: "Rennes"})
	require.NoError(t, err)
	assert.Len(t, rennes, 2)
}

func TestUserManagerList_AdminForcedToOwnRegion(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "adminren", "admin", "Rennes")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "pw")
	seedUser(f.store, "mblanc", orgauth.RoleUser, "Nantes", "pw")

	// whatever region filter the admin passes, they only see their own
	users, err := f.users.List(ctx, orgauth.UserFilter{Region: "Nantes"})
	require.NoError(t, err)
	for _, u := range users {
		assert.Equal(t, "Rennes", u.Region)
	}
}

func TestUserManagerResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "sadmin", "super_admin", "Paris")
	seedUser(f.store, "jdupont", orgauth.RoleUser, "Rennes", "old")

	password, err := f.users.ResetPassword(ctx, "jdupont")
	require.NoError(t, err)
	require.NotEmpty(t, password)

	// the old password no longer works, the new one does
	_, err = f.gateway.Login(ctx, "jdupont", "old")
	require.Error(t, err)
	_, err = f.gateway.Login(ctx, "jdupont", password)
	require.NoError(t, err)
}

func TestUserManagerResetPassword_Scope(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	f.loginAs(t, "adminren", "admin", "Rennes")
	seedUser(f.store, "mblanc", orgauth.RoleUser, "Nantes", "pw")

	_, err := f.users.ResetPassword(ctx, "mblanc")
	require.Error(t, err)
	assert.True(t, orgauth.IsNotAuthorized(err))

	_, err = f.users.ResetPassword(ctx, "ghost")
	require.Error(t, err)
	assert.True(t, orgauth.IsNotFound(err))
}

func TestDeriveLogin(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Jean", "Dupont", "jdupont"},
		{"Marie", "Blanc", "mblanc"},
		{"Anne", "De La Tour", "adelatour"},
		{"Paul", "Saint-Clair", "psaintclair"},
		{"", "Dupont", "dupont"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, orgauth.DeriveLogin(tt.first, tt.last))
	}
}
