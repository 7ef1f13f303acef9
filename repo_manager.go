package orgauth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// storeManager implements Store over a bun database. RunInTx yields a
// manager whose repositories all read and write through the same
// transaction, which is what the uniqueness checks rely on.
type storeManager struct {
	db   *bun.DB
	conn bun.IDB

	usersRepo  repository.Repository[*User]
	identities *usersRepo
	sessions   *sessionsRepo
	attempts   *attemptsRepo
}

var _ Store = (*storeManager)(nil)

// NewStore wraps a bun database in the Store contract
func NewStore(db *bun.DB) Store {
	m := &storeManager{
		db:        db,
		conn:      db,
		usersRepo: NewUsersRepositoryHandlers(db),
	}
	m.identities = &usersRepo{repo: m.usersRepo, db: db}
	m.sessions = &sessionsRepo{db: db}
	m.attempts = &attemptsRepo{db: db}
	return m
}

func (m *storeManager) Identities() IdentityStore { return m.identities }
func (m *storeManager) Sessions() SessionStore    { return m.sessions }
func (m *storeManager) Attempts() AttemptStore    { return m.attempts }

func (m *storeManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	// already transaction-scoped: re-entering joins the same tx
	if _, ok := m.conn.(bun.Tx); ok {
		return fn(ctx, m)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		scoped := &storeManager{
			db:         m.db,
			conn:       tx,
			usersRepo:  m.usersRepo,
			identities: &usersRepo{repo: m.usersRepo, db: tx},
			sessions:   &sessionsRepo{db: tx},
			attempts:   &attemptsRepo{db: tx},
		}
		return fn(ctx, scoped)
	})
}
