package orgauth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the tunables of the engine
type Config interface {
	GetSessionDuration() time.Duration
	GetCredentialDuration() time.Duration
	GetMaxLoginAttempts() int
	GetLockoutDuration() time.Duration
	GetPasswordLength() int
	GetHeadOfficeRegion() string
	GetBootstrapRegions() []string
}

// PasswordAuthenticator computes and verifies credential digests
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// IdentityStore is the directory collaborator. Lookups return (nil, nil)
// when no record matches; errors are reserved for the store being
// unreachable or misbehaving.
type IdentityStore interface {
	FindByLogin(ctx context.Context, login string) (*User, error)
	// FindAuthenticatable returns the identity only if its credential
	// has not expired.
	FindAuthenticatable(ctx context.Context, login string) (*User, error)
	FindByRole(ctx context.Context, role Role) (*User, error)
	// FindAdminInRegion returns an admin-role identity in the region,
	// excluding excludeLogin (pass "" to exclude nobody).
	FindAdminInRegion(ctx context.Context, region, excludeLogin string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	CountInRegion(ctx context.Context, region string) (int, error)
	RegionStats(ctx context.Context) ([]RegionStats, error)
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, login string) (bool, error)
	TransferRegion(ctx context.Context, source, target string) (int64, error)
}

// SessionStore persists session tokens. Each call is independently
// transactional.
type SessionStore interface {
	FindSession(ctx context.Context, login string) (*Session, error)
	// FindActiveSession matches login and token and requires the session
	// not to have expired.
	FindActiveSession(ctx context.Context, login, token string) (*Session, error)
	InsertSession(ctx context.Context, session *Session) error
	DeleteSessions(ctx context.Context, login string) error
	DeleteSession(ctx context.Context, login, token string) error
}

// AttemptStore persists per-login failure counters
type AttemptStore interface {
	FindLoginAttempt(ctx context.Context, login string) (*LoginAttempt, error)
	UpsertLoginAttempt(ctx context.Context, record *LoginAttempt) error
}

// Store aggregates the storage collaborators. RunInTx re-scopes every store
// to a single transaction so check-then-write mutations (admin uniqueness,
// provisioning) are atomic rather than optimistic reads.
type Store interface {
	Identities() IdentityStore
	Sessions() SessionStore
	Attempts() AttemptStore
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// UserFilter narrows directory listings. Zero values match everything.
type UserFilter struct {
	Role   Role
	Region string
}

// RegionStats is one row of the per-region listing
type RegionStats struct {
	Region string `bun:"region"`
	Users  int    `bun:"total_users"`
	Admins int    `bun:"total_admins"`
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ORGAUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ORGAUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ORGAUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ORGAUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
