package orgauth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewUsersRepositoryHandlers builds the generic repository for the users
// table; Login doubles as the record identifier.
func NewUsersRepositoryHandlers(db *bun.DB) repository.Repository[*User] {
	return repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "login"
		},
	})
}

type usersRepo struct {
	repo repository.Repository[*User]
	db   bun.IDB
}

var _ IdentityStore = (*usersRepo)(nil)

func (a *usersRepo) FindByLogin(ctx context.Context, login string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.login = ?", login).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return record, nil
}

func (a *usersRepo) FindAuthenticatable(ctx context.Context, login string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.login = ?", login).
		Where("?TableAlias.credential_expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return record, nil
}

func (a *usersRepo) FindByRole(ctx context.Context, role Role) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_role = ?", string(role)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return record, nil
}

func (a *usersRepo) FindAdminInRegion(ctx context.Context, region, excludeLogin string) (*User, error) {
	record := &User{}
	q := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_role = ?", string(RoleAdmin)).
		Where("?TableAlias.region = ?", region)

	if excludeLogin != "" {
		q = q.Where("?TableAlias.login != ?", excludeLogin)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		return nil, ignoreNoRows(err)
	}
	return record, nil
}

func (a *usersRepo) List(ctx context.Context, filter UserFilter) ([]*User, error) {
	var records []*User
	q := a.db.NewSelect().Model(&records)

	if filter.Role != "" {
		q = q.Where("?TableAlias.user_role = ?", string(filter.Role))
	}
	if filter.Region != "" {
		q = q.Where("?TableAlias.region = ?", filter.Region)
	}

	if err := q.Order("login ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return records, nil
}

func (a *usersRepo) CountInRegion(ctx context.Context, region string) (int, error) {
	return a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.region = ?", region).
		Count(ctx)
}

func (a *usersRepo) RegionStats(ctx context.Context) ([]RegionStats, error) {
	var rows []RegionStats
	err := a.db.NewSelect().
		Model((*User)(nil)).
		ColumnExpr("?TableAlias.region AS region").
		ColumnExpr("COUNT(*) AS total_users").
		ColumnExpr("SUM(CASE WHEN ?TableAlias.user_role = ? THEN 1 ELSE 0 END) AS total_admins", string(RoleAdmin)).
		GroupExpr("?TableAlias.region").
		OrderExpr("?TableAlias.region ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (a *usersRepo) Upsert(ctx context.Context, user *User) error {
	existing, err := a.FindByLogin(ctx, user.Login)
	if err != nil {
		return err
	}

	if existing != nil {
		user.ID = existing.ID
		now := time.Now()
		user.UpdatedAt = &now
		_, err = a.repo.UpdateTx(ctx, a.db, user, repository.UpdateByID(user.ID.String()))
		return err
	}

	prepareUserDefaults(user)
	_, err = a.repo.CreateTx(ctx, a.db, user)
	return err
}

func (a *usersRepo) Delete(ctx context.Context, login string) (bool, error) {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("login = ?", login).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (a *usersRepo) TransferRegion(ctx context.Context, source, target string) (int64, error) {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("region = ?", target).
		Where("region = ?", source).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// prepareUserDefaults assigns a deterministic id derived from the login so
// re-provisioned accounts keep their identity across environments.
func prepareUserDefaults(user *User) {
	if user.ID == uuid.Nil {
		if id, err := hashid.NewUUID(user.Login); err == nil {
			user.ID = id
		} else {
			user.ID = uuid.New()
		}
	}

	if user.CreatedAt == nil {
		now := time.Now()
		user.CreatedAt = &now
	}
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return nil
	}
	return err
}
