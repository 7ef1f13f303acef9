package orgauth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RoleInfo is the role and region of the currently bound identity
type RoleInfo struct {
	Login  string
	Role   Role
	Region string
}

// SessionManager drives session creation, validation, and termination
// against the session store. Each manager binds at most one current
// session: a single interactive process authenticates as exactly one
// identity at a time. Construct one manager per context instead of sharing
// a package-wide instance.
type SessionManager struct {
	sessions  SessionStore
	directory IdentityStore
	ttl       time.Duration
	logger    Logger

	currentLogin string
	currentToken string
}

// NewSessionManager returns a manager bound to no session
func NewSessionManager(store Store, cfg Config) *SessionManager {
	return &SessionManager{
		sessions:  store.Sessions(),
		directory: store.Identities(),
		ttl:       cfg.GetSessionDuration(),
		logger:    defLogger{},
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	m.logger = logger
	return m
}

// CreateSession invalidates any persisted session for the login, mints a
// fresh opaque token, persists it, and adopts it as the current session.
func (m *SessionManager) CreateSession(ctx context.Context, login string) (string, error) {
	if err := m.sessions.DeleteSessions(ctx, login); err != nil {
		return "", WrapStoreErr(err, "failed to clear previous sessions")
	}

	session := &Session{
		Login:     login,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(m.ttl),
	}

	if err := m.sessions.InsertSession(ctx, session); err != nil {
		return "", WrapStoreErr(err, "failed to persist session")
	}

	m.currentLogin = login
	m.currentToken = session.Token

	m.logger.Debug("session created", "login", login)
	return session.Token, nil
}

// EndSession deletes the current session record and clears the in-memory
// binding. A no-op when no session is active.
func (m *SessionManager) EndSession(ctx context.Context) error {
	if m.currentLogin == "" || m.currentToken == "" {
		return nil
	}

	if err := m.sessions.DeleteSession(ctx, m.currentLogin, m.currentToken); err != nil {
		return WrapStoreErr(err, "failed to delete session")
	}

	m.logger.Debug("session ended", "login", m.currentLogin)
	m.currentLogin = ""
	m.currentToken = ""
	return nil
}

// IsSessionValid reports whether the current session exists in memory AND
// the store still holds a matching unexpired row. A row deleted or expired
// behind our back makes the session invalid even though the in-memory
// handle is still set.
func (m *SessionManager) IsSessionValid(ctx context.Context) bool {
	if m.currentLogin == "" || m.currentToken == "" {
		return false
	}

	session, err := m.sessions.FindActiveSession(ctx, m.currentLogin, m.currentToken)
	if err != nil {
		m.logger.Error("session lookup failed", "login", m.currentLogin, "error", err)
		return false
	}

	return session != nil
}

// CurrentLogin returns the bound login, if any
func (m *SessionManager) CurrentLogin() (string, bool) {
	if m.currentLogin == "" {
		return "", false
	}
	return m.currentLogin, true
}

// CurrentRoleAndRegion looks up the directory record behind the current
// session. Returns (nil, nil) when no session is bound or the identity has
// since been deleted.
func (m *SessionManager) CurrentRoleAndRegion(ctx context.Context) (*RoleInfo, error) {
	if m.currentLogin == "" {
		return nil, nil
	}

	user, err := m.directory.FindByLogin(ctx, m.currentLogin)
	if err != nil {
		return nil, WrapStoreErr(err, "failed to load current identity")
	}
	if user == nil {
		return nil, nil
	}

	return &RoleInfo{
		Login:  user.Login,
		Role:   user.Role,
		Region: user.Region,
	}, nil
}
