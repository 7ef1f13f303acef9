package orgauth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess       ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure       ActivityEventType = "auth.login.failure"
	ActivityEventLoginLocked        ActivityEventType = "auth.login.locked"
	ActivityEventLogout             ActivityEventType = "auth.logout"
	ActivityEventSuperAdminCreated  ActivityEventType = "provision.super_admin"
	ActivityEventRegionAdminCreated ActivityEventType = "provision.region_admin"
	ActivityEventUserCreated        ActivityEventType = "directory.user.created"
	ActivityEventUserModified       ActivityEventType = "directory.user.modified"
	ActivityEventUserDeleted        ActivityEventType = "directory.user.deleted"
	ActivityEventPasswordReset      ActivityEventType = "directory.password.reset"
	ActivityEventRegionAdded        ActivityEventType = "region.added"
	ActivityEventRegionRemoved      ActivityEventType = "region.removed"
	ActivityEventRegionTransfer     ActivityEventType = "region.transfer"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	Login string
	Type  string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	Login      string
	Region     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort; record errors are logged, never propagated, so a
// slow or broken sink cannot block authentication.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
