package orgauth

// Authorize answers whether an actor with the given role and region may
// perform an administrative action on targetRegion. An empty targetRegion
// means the action is not scoped to a particular region.
//
//   - Super admins are authorized for everything.
//   - Regional admins are authorized when the target is unscoped or their
//     own region.
//   - Every other role, including unknown ones, is never authorized.
//
// The function is pure: it never touches storage. Callers are responsible
// for resolving the actor from a valid session first; no session means no
// authorization.
func Authorize(actorRole Role, actorRegion, targetRegion string) bool {
	switch actorRole {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return targetRegion == "" || targetRegion == actorRegion
	default:
		return false
	}
}

// AuthorizeInfo applies Authorize to a resolved session identity. A nil
// info (no session or deleted identity) is never authorized.
func AuthorizeInfo(info *RoleInfo, targetRegion string) bool {
	if info == nil {
		return false
	}
	return Authorize(info.Role, info.Region, targetRegion)
}
