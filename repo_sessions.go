package orgauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sessionsRepo struct {
	db bun.IDB
}

var _ SessionStore = (*sessionsRepo)(nil)

func (a *sessionsRepo) FindSession(ctx context.Context, login string) (*Session, error) {
	record := &Session{}
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

func (a *sessionsRepo) FindActiveSession(ctx context.Context, login, token string) (*Session, error) {
	record := &Session{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.login = ?", login).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.expires_at > ?", time.Now()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, ignoreNoRows(err)
	}
	return record, nil
}

func (a *sessionsRepo) InsertSession(ctx context.Context, session *Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt == nil {
		now := time.Now()
		session.CreatedAt = &now
	}

	_, err := a.db.NewInsert().Model(session).Exec(ctx)
	return err
}

func (a *sessionsRepo) DeleteSessions(ctx context.Context, login string) error {
	_, err := a.db.NewDelete().
		Model((*Session)(nil)).
		Where("login = ?", login).
		Exec(ctx)
	return err
}

func (a *sessionsRepo) DeleteSession(ctx context.Context, login, token string) error {
	_, err := a.db.NewDelete().
		Model((*Session)(nil)).
		Where("login = ?", login).
		Where("token = ?", token).
		Exec(ctx)
	return err
}
