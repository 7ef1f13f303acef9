package orgauth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeAccountLocked      = "auth_account_locked"
	TextCodeCredentialExpired  = "auth_credential_expired"
	TextCodeNotAuthorized      = "auth_not_authorized"
	TextCodeNoActiveSession    = "auth_no_active_session"
	TextCodeRegionHasAdmin     = "directory_region_has_admin"
	TextCodeSuperAdminExists   = "directory_super_admin_exists"
	TextCodeLoginTaken         = "directory_login_taken"
	TextCodeUserNotFound       = "directory_user_not_found"
	TextCodeRegionNotFound     = "directory_region_not_found"
	TextCodeRegionNotEmpty     = "directory_region_not_empty"
	TextCodeHeadOfficeImmune   = "directory_head_office_immutable"
	TextCodeSuperAdminImmune   = "directory_super_admin_immutable"
	TextCodeStoreUnavailable   = "store_unavailable"
)

// ErrInvalidCredentials covers both unknown logins and wrong passwords so
// callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrAccountLocked is returned while the login throttle is active. It is
// distinct from ErrInvalidCredentials so front-ends can show a countdown.
var ErrAccountLocked = errors.New("account temporarily locked", errors.CategoryRateLimit).
	WithTextCode(TextCodeAccountLocked).
	WithCode(errors.CodeForbidden)

// ErrNotAuthorized is returned when the policy denies an action.
var ErrNotAuthorized = errors.New("not authorized for this action", errors.CategoryAuthz).
	WithTextCode(TextCodeNotAuthorized).
	WithCode(errors.CodeForbidden)

// ErrNoActiveSession is returned when an operation requires a logged-in
// identity and none is bound.
var ErrNoActiveSession = errors.New("no active session", errors.CategoryAuth).
	WithTextCode(TextCodeNoActiveSession).
	WithCode(errors.CodeUnauthorized)

// ErrRegionHasAdmin is returned when a mutation would give a region a
// second administrator. Metadata names the conflicting region.
var ErrRegionHasAdmin = errors.New("region already has an administrator", errors.CategoryConflict).
	WithTextCode(TextCodeRegionHasAdmin).
	WithCode(errors.CodeConflict)

// ErrSuperAdminExists is returned when provisioning finds a super admin
// already in place.
var ErrSuperAdminExists = errors.New("super admin already exists", errors.CategoryConflict).
	WithTextCode(TextCodeSuperAdminExists).
	WithCode(errors.CodeConflict)

// ErrLoginTaken is returned when a derived or requested login collides.
var ErrLoginTaken = errors.New("login already exists", errors.CategoryConflict).
	WithTextCode(TextCodeLoginTaken).
	WithCode(errors.CodeConflict)

// ErrUserNotFound is returned when the target identity does not exist.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrRegionNotFound is returned for a region name outside the registry.
var ErrRegionNotFound = errors.New("region not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRegionNotFound).
	WithCode(errors.CodeNotFound)

// ErrRegionNotEmpty is returned when deleting a region that still has users.
var ErrRegionNotEmpty = errors.New("region still has users", errors.CategoryConflict).
	WithTextCode(TextCodeRegionNotEmpty).
	WithCode(errors.CodeConflict)

// ErrHeadOfficeImmutable protects the head-office region from deletion.
var ErrHeadOfficeImmutable = errors.New("head office region cannot be removed", errors.CategoryValidation).
	WithTextCode(TextCodeHeadOfficeImmune).
	WithCode(errors.CodeBadRequest)

// ErrSuperAdminImmutable protects the super admin from deletion.
var ErrSuperAdminImmutable = errors.New("super admin cannot be deleted", errors.CategoryValidation).
	WithTextCode(TextCodeSuperAdminImmune).
	WithCode(errors.CodeBadRequest)

// WrapStoreErr marks a storage collaborator failure. The guarded operation
// must be considered not performed.
func WrapStoreErr(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode(TextCodeStoreUnavailable)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsInvalidCredentials reports whether err is the credential-mismatch outcome.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsLocked reports whether err is the throttle-active outcome.
func IsLocked(err error) bool {
	return hasTextCode(err, TextCodeAccountLocked)
}

// IsNotAuthorized reports whether err is a policy denial.
func IsNotAuthorized(err error) bool {
	return hasTextCode(err, TextCodeNotAuthorized) || hasTextCode(err, TextCodeNoActiveSession)
}

// IsInvariantViolation reports whether err is an admin-uniqueness or
// super-admin-uniqueness conflict.
func IsInvariantViolation(err error) bool {
	return hasTextCode(err, TextCodeRegionHasAdmin) || hasTextCode(err, TextCodeSuperAdminExists)
}

// IsStoreUnavailable reports whether err came from the storage collaborator.
func IsStoreUnavailable(err error) bool {
	return hasTextCode(err, TextCodeStoreUnavailable)
}

// IsNotFound reports whether err targets a missing user or region.
func IsNotFound(err error) bool {
	return hasTextCode(err, TextCodeUserNotFound) || hasTextCode(err, TextCodeRegionNotFound)
}
