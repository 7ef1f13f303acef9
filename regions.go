package orgauth

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ErrRegionExists is returned when adding a region name already registered.
var ErrRegionExists = goerrors.New("region already exists", goerrors.CategoryConflict).
	WithTextCode("directory_region_exists").
	WithCode(goerrors.CodeConflict)

// Registry is the in-process set of valid region names. The head-office
// region is always a member and can never be removed. The persisted
// enum-column migration behind region changes is a storage concern handled
// outside this package.
type Registry struct {
	mu         sync.RWMutex
	headOffice string
	names      []string
}

// NewRegistry seeds the registry with the head office and the given branch
// regions.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{headOffice: cfg.GetHeadOfficeRegion()}
	r.names = append(r.names, r.headOffice)
	for _, name := range cfg.GetBootstrapRegions() {
		if !r.Contains(name) {
			r.names = append(r.names, name)
		}
	}
	return r
}

// NewRegistryFromStore seeds the registry with the configured regions plus
// every region that already holds users, so regions added in an earlier
// run survive a restart.
func NewRegistryFromStore(ctx context.Context, cfg Config, identities IdentityStore) (*Registry, error) {
	r := NewRegistry(cfg)

	stats, err := identities.RegionStats(ctx)
	if err != nil {
		return nil, WrapStoreErr(err, "failed to load persisted regions")
	}
	for _, row := range stats {
		if row.Region != "" {
			r.add(row.Region)
		}
	}
	return r, nil
}

// HeadOffice returns the distinguished head-office region
func (r *Registry) HeadOffice() string {
	return r.headOffice
}

// Contains reports whether name is a registered region
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns the registered regions, head office first
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// BranchNames returns the registered regions without the head office
func (r *Registry) BranchNames() []string {
	var out []string
	for _, n := range r.Names() {
		if n != r.headOffice {
			out = append(out, n)
		}
	}
	return out
}

func (r *Registry) add(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return false
		}
	}
	r.names = append(r.names, name)
	return true
}

func (r *Registry) remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			return true
		}
	}
	return false
}

// RegionManager mutates the region enumeration and moves users between
// regions. Every operation here is super-admin only except the listing.
type RegionManager struct {
	store    Store
	sessions *SessionManager
	registry *Registry
	logger   Logger
	activity ActivitySink
}

func NewRegionManager(store Store, sessions *SessionManager, registry *Registry) *RegionManager {
	return &RegionManager{
		store:    store,
		sessions: sessions,
		registry: registry,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (m *RegionManager) WithLogger(logger Logger) *RegionManager {
	m.logger = logger
	return m
}

func (m *RegionManager) WithActivitySink(sink ActivitySink) *RegionManager {
	m.activity = normalizeActivitySink(sink)
	return m
}

func (m *RegionManager) requireSuperAdmin(ctx context.Context) (*RoleInfo, error) {
	if !m.sessions.IsSessionValid(ctx) {
		return nil, ErrNoActiveSession
	}

	actor, err := m.sessions.CurrentRoleAndRegion(ctx)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.Role != RoleSuperAdmin {
		return nil, ErrNotAuthorized.WithMetadata(map[string]any{"action": "manage_regions"})
	}
	return actor, nil
}

// Add registers a new region name
func (m *RegionManager) Add(ctx context.Context, name string) error {
	actor, err := m.requireSuperAdmin(ctx)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if err := ValidateRegionName(name); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid region name")
	}

	if !m.registry.add(name) {
		return ErrRegionExists.WithMetadata(map[string]any{"region": name})
	}

	m.emitEvent(ctx, ActivityEventRegionAdded, actor, name, nil)
	return nil
}

// Remove unregisters a region. The head office is protected, and a region
// that still has users cannot be removed.
func (m *RegionManager) Remove(ctx context.Context, name string) error {
	actor, err := m.requireSuperAdmin(ctx)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == m.registry.HeadOffice() {
		return ErrHeadOfficeImmutable
	}
	if !m.registry.Contains(name) {
		return ErrRegionNotFound.WithMetadata(map[string]any{"region": name})
	}

	count, err := m.store.Identities().CountInRegion(ctx, name)
	if err != nil {
		return WrapStoreErr(err, "failed to count region users")
	}
	if count > 0 {
		return ErrRegionNotEmpty.WithMetadata(map[string]any{
			"region": name,
			"users":  count,
		})
	}

	m.registry.remove(name)
	m.emitEvent(ctx, ActivityEventRegionRemoved, actor, name, nil)
	return nil
}

// List returns per-region user and admin counts. Any authenticated
// identity may list.
func (m *RegionManager) List(ctx context.Context) ([]RegionStats, error) {
	if !m.sessions.IsSessionValid(ctx) {
		return nil, ErrNoActiveSession
	}

	stats, err := m.store.Identities().RegionStats(ctx)
	if err != nil {
		return nil, WrapStoreErr(err, "failed to load region stats")
	}
	return stats, nil
}

// TransferUsers moves every user from source to target. The transfer is
// refused when it would land a second administrator in the target region.
func (m *RegionManager) TransferUsers(ctx context.Context, source, target string) (int64, error) {
	actor, err := m.requireSuperAdmin(ctx)
	if err != nil {
		return 0, err
	}

	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	for _, name := range []string{source, target} {
		if !m.registry.Contains(name) {
			return 0, ErrRegionNotFound.WithMetadata(map[string]any{"region": name})
		}
	}

	var moved int64
	err = m.store.RunInTx(ctx, func(ctx context.Context, tx Store) error {
		sourceAdmin, err := tx.Identities().FindAdminInRegion(ctx, source, "")
		if err != nil {
			return WrapStoreErr(err, "failed to check source region admin")
		}
		if sourceAdmin != nil {
			if err := NewAdminGuard(tx.Identities()).Check(ctx, target, sourceAdmin.Login); err != nil {
				return err
			}
		}

		moved, err = tx.Identities().TransferRegion(ctx, source, target)
		if err != nil {
			return WrapStoreErr(err, "failed to transfer users")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.emitEvent(ctx, ActivityEventRegionTransfer, actor, target, map[string]any{
		"source": source,
		"moved":  moved,
	})
	return moved, nil
}

func (m *RegionManager) emitEvent(ctx context.Context, eventType ActivityEventType, actor *RoleInfo, region string, metadata map[string]any) {
	sink := normalizeActivitySink(m.activity)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{Login: actor.Login, Type: "user"},
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
