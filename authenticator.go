package orgauth

import (
	"context"
	"strings"
	"time"
)

// SuperAdminLogin is the fixed login of the bootstrap super admin
const SuperAdminLogin = "sadmin"

// LoginResult is the successful outcome of the login protocol
type LoginResult struct {
	Login       string
	DisplayName string
	Role        Role
	Region      string
}

// ProvisionedAccount carries the one-time credentials of a freshly
// provisioned account. The password is shown once and never stored in
// plaintext.
type ProvisionedAccount struct {
	Region   string
	Login    string
	Password string
}

// Gateway composes the credential service, login throttle, and session
// manager into the login/logout protocol and the provisioning workflows.
type Gateway struct {
	store    Store
	sessions *SessionManager
	throttle *LoginThrottle
	hasher   PasswordAuthenticator
	config   Config
	logger   Logger
	activity ActivitySink
}

// NewGateway returns a gateway with the default (legacy-compatible)
// password authenticator and a fresh session manager.
func NewGateway(store Store, cfg Config) *Gateway {
	return &Gateway{
		store:    store,
		sessions: NewSessionManager(store, cfg),
		throttle: NewLoginThrottle(store.Attempts(), cfg),
		hasher:   SHA256Authenticator{},
		config:   cfg,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (g *Gateway) WithLogger(logger Logger) *Gateway {
	g.logger = logger
	g.sessions.WithLogger(logger)
	g.throttle.WithLogger(logger)
	return g
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (g *Gateway) WithActivitySink(sink ActivitySink) *Gateway {
	g.activity = normalizeActivitySink(sink)
	return g
}

// WithPasswordAuthenticator swaps the digest scheme.
func (g *Gateway) WithPasswordAuthenticator(hasher PasswordAuthenticator) *Gateway {
	g.hasher = hasher
	return g
}

// SessionManager exposes the per-gateway session context.
func (g *Gateway) SessionManager() *SessionManager {
	return g.sessions
}

// Login drives one authentication attempt:
//
//  1. a locked login is rejected before credentials are consulted
//  2. an unknown login, or one whose credential has expired, records a
//     failure and is rejected
//  3. a digest mismatch follows the same failure path
//  4. a match resets the failure counter and creates the session
//
// Steps 2 and 3 return the same ErrInvalidCredentials so callers cannot
// tell logins apart from passwords.
func (g *Gateway) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	locked, err := g.throttle.IsLocked(ctx, login)
	if err != nil {
		return nil, err
	}
	if locked {
		g.emitEvent(ctx, ActivityEventLoginLocked, ActorRef{Type: "unknown"}, login, "", nil)
		return nil, ErrAccountLocked.WithMetadata(map[string]any{
			"retry_after": g.config.GetLockoutDuration().String(),
		})
	}

	user, err := g.store.Identities().FindAuthenticatable(ctx, login)
	if err != nil {
		return nil, WrapStoreErr(err, "failed to look up identity")
	}
	if user == nil {
		return nil, g.failLogin(ctx, login, "identity missing or credential expired")
	}

	if err := g.hasher.ComparePasswordAndHash(password, user.PasswordDigest); err != nil {
		return nil, g.failLogin(ctx, login, "digest mismatch")
	}

	if err := g.throttle.RecordSuccess(ctx, login); err != nil {
		return nil, err
	}

	if _, err := g.sessions.CreateSession(ctx, login); err != nil {
		return nil, err
	}

	g.emitEvent(ctx, ActivityEventLoginSuccess, ActorRef{Login: login, Type: "user"}, login, user.Region, nil)

	return &LoginResult{
		Login:       user.Login,
		DisplayName: user.DisplayName(),
		Role:        user.Role,
		Region:      user.Region,
	}, nil
}

func (g *Gateway) failLogin(ctx context.Context, login, reason string) error {
	if err := g.throttle.RecordFailure(ctx, login); err != nil {
		return err
	}

	g.logger.Debug("login rejected", "login", login, "reason", reason)
	g.emitEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, login, "", map[string]any{
		"reason": reason,
	})

	return ErrInvalidCredentials
}

// Logout terminates the current session. A no-op without one.
func (g *Gateway) Logout(ctx context.Context) error {
	login, ok := g.sessions.CurrentLogin()
	if !ok {
		return nil
	}

	if err := g.sessions.EndSession(ctx); err != nil {
		return err
	}

	g.emitEvent(ctx, ActivityEventLogout, ActorRef{Login: login, Type: "user"}, login, "", nil)
	return nil
}

// IsAuthenticated reports whether a live session is bound.
func (g *Gateway) IsAuthenticated(ctx context.Context) bool {
	return g.sessions.IsSessionValid(ctx)
}

// CurrentRoleAndRegion resolves the directory record behind the current
// session; (nil, nil) when there is none.
func (g *Gateway) CurrentRoleAndRegion(ctx context.Context) (*RoleInfo, error) {
	if !g.sessions.IsSessionValid(ctx) {
		return nil, nil
	}
	return g.sessions.CurrentRoleAndRegion(ctx)
}

// Authorize reports whether the current identity may act on targetRegion
// ("" means an unscoped action).
func (g *Gateway) Authorize(ctx context.Context, targetRegion string) bool {
	if !g.sessions.IsSessionValid(ctx) {
		return false
	}

	info, err := g.sessions.CurrentRoleAndRegion(ctx)
	if err != nil {
		g.logger.Error("authorize identity lookup failed", "error", err)
		return false
	}

	return AuthorizeInfo(info, targetRegion)
}

// ProvisionSuperAdmin creates the single system-wide super admin if none
// exists, returning its one-time credentials. Returns (nil, nil) when the
// slot is already filled; re-running is always safe.
func (g *Gateway) ProvisionSuperAdmin(ctx context.Context) (*ProvisionedAccount, error) {
	existing, err := g.store.Identities().FindByRole(ctx, RoleSuperAdmin)
	if err != nil {
		return nil, WrapStoreErr(err, "failed to check for super admin")
	}
	if existing != nil {
		g.logger.Debug("super admin already provisioned", "login", existing.Login)
		return nil, nil
	}

	password, err := GeneratePassword(g.config.GetPasswordLength())
	if err != nil {
		return nil, err
	}

	digest, err := g.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Login:            SuperAdminLogin,
		FirstName:        "Super",
		LastName:         "Admin",
		Role:             RoleSuperAdmin,
		Region:           g.config.GetHeadOfficeRegion(),
		PasswordDigest:   digest,
		CredentialExpiry: CredentialExpiry(time.Now(), g.config.GetCredentialDuration()),
	}

	err = g.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		// re-check under the transaction so two bootstrapping instances
		// cannot both fill the slot
		existing, err := tx.Identities().FindByRole(ctx, RoleSuperAdmin)
		if err != nil {
			return WrapStoreErr(err, "failed to check for super admin")
		}
		if existing != nil {
			return ErrSuperAdminExists
		}
		if err := tx.Identities().Upsert(ctx, user); err != nil {
			return WrapStoreErr(err, "failed to create super admin")
		}
		return nil
	})
	if err != nil {
		if IsInvariantViolation(err) {
			return nil, nil
		}
		return nil, err
	}

	g.emitEvent(ctx, ActivityEventSuperAdminCreated, ActorRef{Type: "system"}, user.Login, user.Region, nil)

	return &ProvisionedAccount{
		Region:   user.Region,
		Login:    user.Login,
		Password: password,
	}, nil
}

// ProvisionRegionalAdmins fills each region's admin slot that is still
// empty, in the order given, and returns the accounts it created. Slots
// that already hold an admin are silently skipped, so re-running creates
// nothing. The caller must hold a valid super-admin session.
func (g *Gateway) ProvisionRegionalAdmins(ctx context.Context, regions []string) ([]ProvisionedAccount, error) {
	if !g.sessions.IsSessionValid(ctx) {
		return nil, ErrNoActiveSession
	}

	actor, err := g.sessions.CurrentRoleAndRegion(ctx)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != RoleSuperAdmin {
		return nil, ErrNotAuthorized.WithMetadata(map[string]any{
			"action": "provision_regional_admins",
		})
	}

	var created []ProvisionedAccount

	for _, region := range regions {
		account, err := g.provisionRegionAdmin(ctx, actor.Login, region)
		if err != nil {
			return created, err
		}
		if account != nil {
			created = append(created, *account)
		}
	}

	return created, nil
}

func (g *Gateway) provisionRegionAdmin(ctx context.Context, createdBy, region string) (*ProvisionedAccount, error) {
	login := RegionAdminLogin(region)

	var (
		password string
		skipped  bool
	)
	// Credentials are generated inside the transaction, after the slot
	// check, so idempotent re-runs on a filled region do no hashing.
	err := g.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		guard := NewAdminGuard(tx.Identities())
		violates, err := guard.WouldViolate(ctx, region, "")
		if err != nil {
			return err
		}
		if violates {
			skipped = true
			return nil
		}

		if taken, err := tx.Identities().FindByLogin(ctx, login); err != nil {
			return WrapStoreErr(err, "failed to check login availability")
		} else if taken != nil {
			return ErrLoginTaken.WithMetadata(map[string]any{"login": login})
		}

		password, err = GeneratePassword(g.config.GetPasswordLength())
		if err != nil {
			return err
		}

		digest, err := g.hasher.HashPassword(password)
		if err != nil {
			return err
		}

		user := &User{
			Login:            login,
			FirstName:        region,
			LastName:         "Admin",
			Role:             RoleAdmin,
			Region:           region,
			PasswordDigest:   digest,
			CredentialExpiry: CredentialExpiry(time.Now(), g.config.GetCredentialDuration()),
			CreatedBy:        createdBy,
		}
		if err := tx.Identities().Upsert(ctx, user); err != nil {
			return WrapStoreErr(err, "failed to create regional admin")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if skipped {
		g.logger.Debug("region already has an admin", "region", region)
		return nil, nil
	}

	g.emitEvent(ctx, ActivityEventRegionAdminCreated, ActorRef{Login: createdBy, Type: "user"}, login, region, nil)

	return &ProvisionedAccount{
		Region:   region,
		Login:    login,
		Password: password,
	}, nil
}

// RegionAdminLogin derives the provisioned admin login for a region,
// e.g. "adminren" for Rennes.
func RegionAdminLogin(region string) string {
	prefix := strings.ToLower(region)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return "admin" + prefix
}

func (g *Gateway) emitEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, login, region string, metadata map[string]any) {
	sink := normalizeActivitySink(g.activity)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		Login:     login,
		Region:    region,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		g.logger.Warn("activity sink record error: %v", err)
	}
}
