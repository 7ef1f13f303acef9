package orgauth

import (
	"context"
	"strings"
	"time"
)

// UserManager is the record-management glue around the core: every
// mutation resolves the acting identity from the session manager, asks the
// policy, and runs invariant-guarded writes in a store transaction.
type UserManager struct {
	store    Store
	sessions *SessionManager
	registry *Registry
	hasher   PasswordAuthenticator
	config   Config
	logger   Logger
	activity ActivitySink
}

// NewUserManager wires the manager to a gateway's session context and a
// region registry.
func NewUserManager(store Store, sessions *SessionManager, registry *Registry, cfg Config) *UserManager {
	return &UserManager{
		store:    store,
		sessions: sessions,
		registry: registry,
		hasher:   SHA256Authenticator{},
		config:   cfg,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (m *UserManager) WithLogger(logger Logger) *UserManager {
	m.logger = logger
	return m
}

func (m *UserManager) WithActivitySink(sink ActivitySink) *UserManager {
	m.activity = normalizeActivitySink(sink)
	return m
}

func (m *UserManager) WithPasswordAuthenticator(hasher PasswordAuthenticator) *UserManager {
	m.hasher = hasher
	return m
}

// requireActor resolves the acting identity behind the current session.
func (m *UserManager) requireActor(ctx context.Context) (*RoleInfo, error) {
	if !m.sessions.IsSessionValid(ctx) {
		return nil, ErrNoActiveSession
	}

	actor, err := m.sessions.CurrentRoleAndRegion(ctx)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, ErrNoActiveSession
	}
	return actor, nil
}

// DeriveLogin builds the conventional login for a person: first initial
// plus last name, lowercased, spaces and hyphens removed.
func DeriveLogin(firstName, lastName string) string {
	first := strings.TrimSpace(firstName)
	last := strings.TrimSpace(lastName)
	if first == "" || last == "" {
		return strings.ToLower(first + last)
	}

	login := strings.ToLower(string([]rune(first)[0]) + last)
	login = strings.ReplaceAll(login, " ", "")
	return strings.ReplaceAll(login, "-", "")
}

// Add creates a directory record with generated credentials. Only the
// super admin may create admins; a regional admin may only create users in
// their own region. Admin-role inserts are guarded by the region
// uniqueness invariant inside the write transaction.
func (m *UserManager) Add(ctx context.Context, input NewUserInput) (*ProvisionedAccount, error) {
	actor, err := m.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	region := strings.TrimSpace(input.Region)
	if !m.registry.Contains(region) {
		return nil, ErrRegionNotFound.WithMetadata(map[string]any{"region": region})
	}

	if input.Role == RoleAdmin && actor.Role != RoleSuperAdmin {
		return nil, ErrNotAuthorized.WithMetadata(map[string]any{
			"action": "create_admin",
		})
	}

	if actor.Role == RoleAdmin && region != actor.Region {
		return nil, ErrNotAuthorized.WithMetadata(map[string]any{
			"action": "create_user",
			"region": region,
		})
	}

	if actor.Role == RoleUser {
		return nil, ErrNotAuthorized.WithMetadata(map[string]any{"action": "create_user"})
	}

	password, err := GeneratePassword(m.config.GetPasswordLength())
	if err != nil {
		return nil, err
	}

	digest, err := m.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Login:            DeriveLogin(input.FirstName, input.LastName),
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		Role:             input.Role,
		Region:           region,
		PasswordDigest:   digest,
		CredentialExpiry: CredentialExpiry(time.Now(), m.config.GetCredentialDuration()),
		CreatedBy:        actor.Login,
	}

	err = m.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		if taken, err := tx.Identities().FindByLogin(ctx, user.Login); err != nil {
			return WrapStoreErr(err, "failed to check login availability")
		} else if taken != nil {
			return ErrLoginTaken.WithMetadata(map[string]any{"login": user.Login})
		}

		if user.Role == RoleAdmin {
			if err := NewAdminGuard(tx.Identities()).Check(ctx, region, ""); err != nil {
				return err
			}
		}

		if err := tx.Identities().Upsert(ctx, user); err != nil {
			return WrapStoreErr(err, "failed to create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.emitEvent(ctx, ActivityEventUserCreated, actor, user.Login, region, map[string]any{
		"role": string(user.Role),
	})

	return &ProvisionedAccount{
		Region:   region,
		Login:    user.Login,
		Password: password,
	}, nil
}

// Modify applies a typed partial update. A regional admin may only touch
// identities in their own region and may not promote anyone to admin.
// Role or region changes that would give a region a second admin are
// rejected inside the write transaction.
func (m *UserManager) Modify(ctx context.Context, login string, update UserUpdate) error {
	actor, err := m.requireActor(ctx)
	if err != nil {
		return err
	}

	if err := update.Validate(); err != nil {
		return err
	}

	if update.Role != nil && *update.Role == RoleSuperAdmin {
		// the super-admin slot is filled at provisioning time, never by
		// promotion
		return ErrNotAuthorized.WithMetadata(map[string]any{"action": "promote_super_admin"})
	}

	if update.Region != nil && !m.registry.Contains(*update.Region) {
		return ErrRegionNotFound.WithMetadata(map[string]any{"region": *update.Region})
	}

	return m.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.Identities().FindByLogin(ctx, login)
		if err != nil {
			return WrapStoreErr(err, "failed to load user")
		}
		if user == nil {
			return ErrUserNotFound.WithMetadata(map[string]any{"login": login})
		}

		if actor.Role == RoleAdmin {
			if user.Region != actor.Region {
				return ErrNotAuthorized.WithMetadata(map[string]any{
					"action": "modify_user",
					"region": user.Region,
				})
			}
			if update.Role != nil && *update.Role == RoleAdmin {
				return ErrNotAuthorized.WithMetadata(map[string]any{"action": "promote_admin"})
			}
		} else if actor.Role != RoleSuperAdmin {
			return ErrNotAuthorized.WithMetadata(map[string]any{"action": "modify_user"})
		}

		if update.FirstName != nil {
			user.FirstName = strings.TrimSpace(*update.FirstName)
		}
		if update.LastName != nil {
			user.LastName = strings.TrimSpace(*update.LastName)
		}
		if update.Role != nil {
			user.Role = *update.Role
		}
		if update.Region != nil {
			user.Region = strings.TrimSpace(*update.Region)
		}

		if user.Role == RoleAdmin && (update.Role != nil || update.Region != nil) {
			if err := NewAdminGuard(tx.Identities()).Check(ctx, user.Region, user.Login); err != nil {
				return err
			}
		}

		if err := tx.Identities().Upsert(ctx, user); err != nil {
			return WrapStoreErr(err, "failed to update user")
		}

		m.emitEvent(ctx, ActivityEventUserModified, actor, user.Login, user.Region, nil)
		return nil
	})
}

// Delete removes a directory record. The super admin can never be
// deleted; a regional admin can delete neither cross-region identities nor
// other admins. Sessions of the deleted identity are revoked in the same
// transaction.
func (m *UserManager) Delete(ctx context.Context, login string) error {
	actor, err := m.requireActor(ctx)
	if err != nil {
		return err
	}

	return m.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.Identities().FindByLogin(ctx, login)
		if err != nil {
			return WrapStoreErr(err, "failed to load user")
		}
		if user == nil {
			return ErrUserNotFound.WithMetadata(map[string]any{"login": login})
		}

		if user.Role == RoleSuperAdmin {
			return ErrSuperAdminImmutable
		}

		switch actor.Role {
		case RoleSuperAdmin:
		case RoleAdmin:
			if user.Region != actor.Region {
				return ErrNotAuthorized.WithMetadata(map[string]any{
					"action": "delete_user",
					"region": user.Region,
				})
			}
			if user.Role == RoleAdmin {
				return ErrNotAuthorized.WithMetadata(map[string]any{"action": "delete_admin"})
			}
		default:
			return ErrNotAuthorized.WithMetadata(map[string]any{"action": "delete_user"})
		}

		deleted, err := tx.Identities().Delete(ctx, login)
		if err != nil {
			return WrapStoreErr(err, "failed to delete user")
		}
		if !deleted {
			return ErrUserNotFound.WithMetadata(map[string]any{"login": login})
		}

		if err := tx.Sessions().DeleteSessions(ctx, login); err != nil {
			return WrapStoreErr(err, "failed to revoke sessions")
		}

		m.emitEvent(ctx, ActivityEventUserDeleted, actor, login, user.Region, nil)
		return nil
	})
}

// List returns directory records matching the filter. A regional admin
// only ever sees their own region, whatever filter they pass.
func (m *UserManager) List(ctx context.Context, filter UserFilter) ([]*User, error) {
	actor, err := m.requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if actor.Role == RoleAdmin {
		filter.Region = actor.Region
	}

	users, err := m.store.Identities().List(ctx, filter)
	if err != nil {
		return nil, WrapStoreErr(err, "failed to list users")
	}
	return users, nil
}

// ResetPassword issues a fresh generated password and a fresh 90-day
// credential expiry, returning the plaintext once. A regional admin may
// only reset passwords inside their own region.
func (m *UserManager) ResetPassword(ctx context.Context, login string) (string, error) {
	actor, err := m.requireActor(ctx)
	if err != nil {
		return "", err
	}

	password, err := GeneratePassword(m.config.GetPasswordLength())
	if err != nil {
		return "", err
	}

	digest, err := m.hasher.HashPassword(password)
	if err != nil {
		return "", err
	}

	err = m.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		user, err := tx.Identities().FindByLogin(ctx, login)
		if err != nil {
			return WrapStoreErr(err, "failed to load user")
		}
		if user == nil {
			return ErrUserNotFound.WithMetadata(map[string]any{"login": login})
		}

		if actor.Role == RoleAdmin && user.Region != actor.Region {
			return ErrNotAuthorized.WithMetadata(map[string]any{
				"action": "reset_password",
				"region": user.Region,
			})
		}
		if actor.Role == RoleUser {
			return ErrNotAuthorized.WithMetadata(map[string]any{"action": "reset_password"})
		}

		user.PasswordDigest = digest
		user.CredentialExpiry = CredentialExpiry(time.Now(), m.config.GetCredentialDuration())

		if err := tx.Identities().Upsert(ctx, user); err != nil {
			return WrapStoreErr(err, "failed to store new credential")
		}

		m.emitEvent(ctx, ActivityEventPasswordReset, actor, login, user.Region, nil)
		return nil
	})
	if err != nil {
		return "", err
	}

	return password, nil
}

func (m *UserManager) emitEvent(ctx context.Context, eventType ActivityEventType, actor *RoleInfo, login, region string, metadata map[string]any) {
	sink := normalizeActivitySink(m.activity)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{Login: actor.Login, Type: "user"},
		Login:      login,
		Region:     region,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
