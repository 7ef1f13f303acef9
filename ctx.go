package orgauth

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var roleInfoCtxKey = &contextKey{"role-info"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithRoleInfoContext sets the resolved RoleInfo in the given context
func WithRoleInfoContext(r context.Context, info *RoleInfo) context.Context {
	return context.WithValue(r, roleInfoCtxKey, info)
}

// RoleInfoFromContext extracts the RoleInfo from the context
func RoleInfoFromContext(ctx context.Context) (*RoleInfo, bool) {
	raw, ok := ctx.Value(roleInfoCtxKey).(*RoleInfo)
	return raw, ok
}

// CanManage is a convenience check for collaborators that carry the
// resolved identity in the context.
func CanManage(ctx context.Context, targetRegion string) bool {
	info, ok := RoleInfoFromContext(ctx)
	if !ok {
		return false
	}
	return AuthorizeInfo(info, targetRegion)
}
