package orgauth

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type attemptsRepo struct {
	db bun.IDB
}

var _ AttemptStore = (*attemptsRepo)(nil)

func (a *attemptsRepo) FindLoginAttempt(ctx context.Context, login string) (*LoginAttempt, error) {
	record := &LoginAttempt{}
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

func (a *attemptsRepo) UpsertLoginAttempt(ctx context.Context, record *LoginAttempt) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	_, err := a.db.NewInsert().
		Model(record).
		On("CONFLICT (login) DO UPDATE").
		Set("failures = EXCLUDED.failures").
		Set("last_attempt_at = EXCLUDED.last_attempt_at").
		Exec(ctx)
	return err
}
