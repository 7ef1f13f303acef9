package orgauth_test

import (
	"context"
	"sort"
	"sync"
	"time"

	orgauth "github.com/goliatone/go-orgauth"
	"github.com/google/uuid"
)

// memStore is an in-memory Store. Every interface method copies records on
// the way in and out so tests can mutate stored state only through the
// poke* helpers, which is how time-dependent scenarios (expired sessions,
// lapsed lockout windows) are arranged without a clock.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*orgauth.User
	sessions map[string]*orgauth.Session
	attempts map[string]*orgauth.LoginAttempt
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*orgauth.User{},
		sessions: map[string]*orgauth.Session{},
		attempts: map[string]*orgauth.LoginAttempt{},
	}
}

func (s *memStore) Identities() orgauth.IdentityStore { return s }
func (s *memStore) Sessions() orgauth.SessionStore    { return s }
func (s *memStore) Attempts() orgauth.AttemptStore    { return s }

func (s *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx orgauth.Store) error) error {
	return fn(ctx, s)
}

func copyUser(u *orgauth.User) *orgauth.User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

func (s *memStore) FindByLogin(ctx context.Context, login string) (*orgauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.users[login]), nil
}

func (s *memStore) FindAuthenticatable(ctx context.Context, login string) (*orgauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[login]
	if u == nil || u.CredentialExpired(time.Now()) {
		return nil, nil
	}
	return copyUser(u), nil
}

func (s *memStore) FindByRole(ctx context.Context, role orgauth.Role) (*orgauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Role == role {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *memStore) FindAdminInRegion(ctx context.Context, region, excludeLogin string) (*orgauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Role != orgauth.RoleAdmin || u.Region != region {
			continue
		}
		if excludeLogin != "" && u.Login == excludeLogin {
			continue
		}
		return copyUser(u), nil
	}
	return nil, nil
}

func (s *memStore) List(ctx context.Context, filter orgauth.UserFilter) ([]*orgauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*orgauth.User
	for _, u := range s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Region != "" && u.Region != filter.Region {
			continue
		}
		out = append(out, copyUser(u))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

func (s *memStore) CountInRegion(ctx context.Context, region string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, u := range s.users {
		if u.Region == region {
			count++
		}
	}
	return count, nil
}

func (s *memStore) RegionStats(ctx context.Context) ([]orgauth.RegionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byRegion := map[string]*orgauth.RegionStats{}
	for _, u := range s.users {
		row := byRegion[u.Region]
		if row == nil {
			row = &orgauth.RegionStats{Region: u.Region}
			byRegion[u.Region] = row
		}
		row.Users++
		if u.Role == orgauth.RoleAdmin {
			row.Admins++
		}
	}

	var out []orgauth.RegionStats
	for _, row := range byRegion {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out, nil
}

func (s *memStore) Upsert(ctx context.Context, user *orgauth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := copyUser(user)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.users[record.Login] = record
	return nil
}

func (s *memStore) Delete(ctx context.Context, login string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[login]; !ok {
		return false, nil
	}
	delete(s.users, login)
	return true, nil
}

func (s *memStore) TransferRegion(ctx context.Context, source, target string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved int64
	for _, u := range s.users {
		if u.Region == source {
			u.Region = target
			moved++
		}
	}
	return moved, nil
}

func (s *memStore) FindSession(ctx context.Context, login string) (*orgauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ses := range s.sessions {
		if ses.Login == login {
			out := *ses
			return &out, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindActiveSession(ctx context.Context, login, token string) (*orgauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ses := s.sessions[token]
	if ses == nil || ses.Login != login || ses.Expired(time.Now()) {
		return nil, nil
	}
	out := *ses
	return &out, nil
}

func (s *memStore) InsertSession(ctx context.Context, session *orgauth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := *session
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.sessions[record.Token] = &record
	return nil
}

func (s *memStore) DeleteSessions(ctx context.Context, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, ses := range s.sessions {
		if ses.Login == login {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *memStore) DeleteSession(ctx context.Context, login, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ses := s.sessions[token]; ses != nil && ses.Login == login {
		delete(s.sessions, token)
	}
	return nil
}

func (s *memStore) FindLoginAttempt(ctx context.Context, login string) (*orgauth.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.attempts[login]
	if record == nil {
		return nil, nil
	}
	out := *record
	return &out, nil
}

func (s *memStore) UpsertLoginAttempt(ctx context.Context, record *orgauth.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	s.attempts[record.Login] = &stored
	return nil
}

// pokeAttempt rewrites the stored failure record, used to simulate a
// lockout window that has already lapsed.
func (s *memStore) pokeAttempt(login string, failures int, lastAttemptAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[login] = &orgauth.LoginAttempt{
		ID:            uuid.New(),
		Login:         login,
		Failures:      failures,
		LastAttemptAt: lastAttemptAt,
	}
}

// pokeSessionExpiry backdates every stored session for login.
func (s *memStore) pokeSessionExpiry(login string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ses := range s.sessions {
		if ses.Login == login {
			ses.ExpiresAt = expiresAt
		}
	}
}

// pokeCredentialExpiry backdates the stored credential for login.
func (s *memStore) pokeCredentialExpiry(login string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[login]; u != nil {
		u.CredentialExpiry = expiresAt
	}
}

func (s *memStore) sessionCount(login string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ses := range s.sessions {
		if ses.Login == login {
			count++
		}
	}
	return count
}

var _ orgauth.Store = (*memStore)(nil)

// recordingSink collects activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []orgauth.ActivityEvent
}

func (r *recordingSink) Record(ctx context.Context, event orgauth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []orgauth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]orgauth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

var _ orgauth.ActivitySink = (*recordingSink)(nil)

// countingAuthenticator tallies digest computations.
type countingAuthenticator struct {
	orgauth.SHA256Authenticator
	hashes int
}

func (c *countingAuthenticator) HashPassword(password string) (string, error) {
	c.hashes++
	return c.SHA256Authenticator.HashPassword(password)
}

var _ orgauth.PasswordAuthenticator = (*countingAuthenticator)(nil)

func newTestConfig() *orgauth.SimpleConfig {
	return orgauth.NewConfig()
}

// seedUser inserts an identity with a known password into the store.
func seedUser(s *memStore, login string, role orgauth.Role, region, password string) *orgauth.User {
	digest, err := orgauth.SHA256Authenticator{}.HashPassword(password)
	if err != nil {
		panic(err)
	}

	user := &orgauth.User{
		ID:               uuid.New(),
		Login:            login,
		FirstName:        "Test",
		LastName:         login,
		Role:             role,
		Region:           region,
		PasswordDigest:   digest,
		CredentialExpiry: orgauth.CredentialExpiry(time.Now(), orgauth.DefaultCredentialDuration),
	}
	if err := s.Upsert(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}
