package orgauth_test

import (
	"testing"
	"time"

	orgauth "github.com/goliatone/go-orgauth"
	"github.com/stretchr/testify/assert"
)

func TestUserDisplayName(t *testing.T) {
	user := &orgauth.User{FirstName: "Jean", LastName: "Dupont"}
	assert.Equal(t, "Jean Dupont", user.DisplayName())

	partial := &orgauth.User{LastName: "Dupont"}
	assert.Equal(t, "Dupont", partial.DisplayName())
}

func TestUserCredentialExpired(t *testing.T) {
	now := time.Now()

	fresh := &orgauth.User{CredentialExpiry: now.Add(time.Hour)}
	assert.False(t, fresh.CredentialExpired(now))

	stale := &orgauth.User{CredentialExpiry: now.Add(-time.Hour)}
	assert.True(t, stale.CredentialExpired(now))

	boundary := &orgauth.User{CredentialExpiry: now}
	assert.True(t, boundary.CredentialExpired(now), "exactly-expired counts as expired")
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	live := &orgauth.Session{ExpiresAt: now.Add(8 * time.Hour)}
	assert.False(t, live.Expired(now))

	dead := &orgauth.Session{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, dead.Expired(now))
}
