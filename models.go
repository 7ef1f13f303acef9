package orgauth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is one login-capable directory record
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Login            string     `bun:"login,notnull,unique" json:"login,omitempty"`
	FirstName        string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName         string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Role             Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Region           string     `bun:"region,nullzero" json:"region,omitempty"`
	PasswordDigest   string     `bun:"password_digest,notnull" json:"-"`
	CredentialExpiry time.Time  `bun:"credential_expires_at,notnull" json:"credential_expires_at,omitempty"`
	CreatedBy        string     `bun:"created_by,nullzero" json:"created_by,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// DisplayName is the human-facing name shown after login and in listings
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CredentialExpired reports whether the stored credential can no longer be
// used to authenticate, regardless of digest correctness.
func (u *User) CredentialExpired(now time.Time) bool {
	return !u.CredentialExpiry.After(now)
}

// Session is a time-bounded proof of authentication. At most one live
// session is retained per login; creating a new one replaces any prior one.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Login         string     `bun:"login,notnull" json:"login,omitempty"`
	Token         string     `bun:"token,notnull" json:"token,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the session is past its expiry
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// LoginAttempt tracks consecutive authentication failures for one login.
// Failures reset to zero only on a successful authentication.
type LoginAttempt struct {
	bun.BaseModel `bun:"table:login_attempts,alias:att"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Login         string    `bun:"login,notnull,unique" json:"login,omitempty"`
	Failures      int       `bun:"failures,notnull" json:"failures,omitempty"`
	LastAttemptAt time.Time `bun:"last_attempt_at,notnull" json:"last_attempt_at,omitempty"`
}
