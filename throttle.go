package orgauth

import (
	"context"
	"time"
)

// LoginThrottle enforces a temporary lockout after consecutive failed
// login attempts. State lives in the attempt store so the lock survives
// process restarts and is shared by concurrent instances.
//
// A login is locked while failures >= max AND the last attempt is inside
// the lockout window. Once the window lapses a fresh attempt is permitted,
// but the counter only resets on the next successful authentication.
type LoginThrottle struct {
	attempts AttemptStore
	max      int
	window   time.Duration
	logger   Logger
}

// NewLoginThrottle returns a throttle with the configured attempt budget
// and lockout window.
func NewLoginThrottle(attempts AttemptStore, cfg Config) *LoginThrottle {
	return &LoginThrottle{
		attempts: attempts,
		max:      cfg.GetMaxLoginAttempts(),
		window:   cfg.GetLockoutDuration(),
		logger:   defLogger{},
	}
}

func (t *LoginThrottle) WithLogger(logger Logger) *LoginThrottle {
	t.logger = logger
	return t
}

// IsLocked reports whether login attempts for this name must be rejected,
// irrespective of credential correctness.
func (t *LoginThrottle) IsLocked(ctx context.Context, login string) (bool, error) {
	record, err := t.attempts.FindLoginAttempt(ctx, login)
	if err != nil {
		return false, WrapStoreErr(err, "failed to load login attempts")
	}

	if record == nil || record.Failures < t.max {
		return false, nil
	}

	return IsWithinThresholdPeriod(record.LastAttemptAt, t.window), nil
}

// RecordFailure increments the consecutive-failure counter and stamps the
// attempt time.
func (t *LoginThrottle) RecordFailure(ctx context.Context, login string) error {
	record, err := t.attempts.FindLoginAttempt(ctx, login)
	if err != nil {
		return WrapStoreErr(err, "failed to load login attempts")
	}

	if record == nil {
		record = &LoginAttempt{Login: login}
	}

	record.Failures++
	record.LastAttemptAt = time.Now()

	if err := t.attempts.UpsertLoginAttempt(ctx, record); err != nil {
		return WrapStoreErr(err, "failed to record login failure")
	}

	t.logger.Debug("login failure recorded", "login", login, "failures", record.Failures)
	return nil
}

// RecordSuccess resets the counter to zero and stamps the attempt time.
func (t *LoginThrottle) RecordSuccess(ctx context.Context, login string) error {
	record, err := t.attempts.FindLoginAttempt(ctx, login)
	if err != nil {
		return WrapStoreErr(err, "failed to load login attempts")
	}

	if record == nil {
		record = &LoginAttempt{Login: login}
	}

	record.Failures = 0
	record.LastAttemptAt = time.Now()

	if err := t.attempts.UpsertLoginAttempt(ctx, record); err != nil {
		return WrapStoreErr(err, "failed to reset login failures")
	}

	return nil
}
