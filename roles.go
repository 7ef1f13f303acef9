package orgauth

// Role is an identity's role in the directory
type Role string

const (
	// RoleSuperAdmin is the single system-wide administrator
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin administers exactly one region
	RoleAdmin Role = "admin"
	// RoleUser is a plain account with no administrative authority
	RoleUser Role = "user"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// IsAdministrative reports whether the role carries any administrative
// authority.
func (r Role) IsAdministrative() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// RequiresRegion reports whether identities with this role must carry a
// region. The super admin's region is fixed to the head office and ignored
// by the policy.
func (r Role) RequiresRegion() bool {
	return r == RoleAdmin || r == RoleUser
}

// AllRoles returns the predefined roles in decreasing order of authority
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleUser}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role.IsValid()
}
