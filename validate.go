package orgauth

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

var displayNamePattern = regexp.MustCompile(`^[A-Za-zÀ-ÿ\-\s]+$`)

const (
	displayNameMinLength = 2
	displayNameMaxLength = 50
)

// ValidateDisplayName checks a first or last name: 2-50 characters,
// letters (accented included), hyphens and spaces only.
func ValidateDisplayName(name string) error {
	return validation.Validate(strings.TrimSpace(name),
		validation.Required,
		validation.Length(displayNameMinLength, displayNameMaxLength),
		validation.Match(displayNamePattern),
	)
}

// ValidateRegionName checks the shape of a region name. Membership in the
// region registry is a separate concern.
func ValidateRegionName(name string) error {
	return validation.Validate(strings.TrimSpace(name),
		validation.Required,
		validation.Length(displayNameMinLength, displayNameMaxLength),
		validation.Match(displayNamePattern),
	)
}

// NewUserInput is the payload for creating a directory record
type NewUserInput struct {
	FirstName string
	LastName  string
	Role      Role
	Region    string
}

// Validate applies the field rules. Role membership uses the closed role
// set; the region registry check happens at the manager.
func (r NewUserInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(displayNameMinLength, displayNameMaxLength), validation.Match(displayNamePattern)),
		validation.Field(&r.LastName, validation.Required, validation.Length(displayNameMinLength, displayNameMaxLength), validation.Match(displayNamePattern)),
		validation.Field(&r.Role, validation.Required, validation.In(RoleAdmin, RoleUser)),
		validation.Field(&r.Region, validation.Required, validation.Match(displayNamePattern)),
	)
}

// UserUpdate is a typed partial update of the mutable identity fields.
// Nil means "leave unchanged". Anything outside these four fields is
// rejected at the parse boundary instead of being silently ignored.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Role      *Role
	Region    *string
}

// IsEmpty reports whether the update changes nothing
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Role == nil && u.Region == nil
}

// Validate applies field rules to the present fields
func (u UserUpdate) Validate() error {
	if u.IsEmpty() {
		return goerrors.New("no valid modification specified", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	if u.FirstName != nil {
		if err := ValidateDisplayName(*u.FirstName); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid first name")
		}
	}
	if u.LastName != nil {
		if err := ValidateDisplayName(*u.LastName); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid last name")
		}
	}
	if u.Role != nil && !u.Role.IsValid() {
		return goerrors.New("invalid role", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": string(*u.Role)})
	}
	if u.Region != nil {
		if err := ValidateRegionName(*u.Region); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid region")
		}
	}
	return nil
}

// ParseUserUpdate converts one field/value pair from an untyped front-end
// into a typed update, rejecting unknown field names outright.
func ParseUserUpdate(field, value string) (UserUpdate, error) {
	var update UserUpdate

	switch strings.ToLower(strings.TrimSpace(field)) {
	case "first_name", "firstname":
		update.FirstName = &value
	case "last_name", "lastname":
		update.LastName = &value
	case "role":
		role, ok := ParseRole(value)
		if !ok {
			return update, goerrors.New("invalid role", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest).
				WithMetadata(map[string]any{"role": value})
		}
		update.Role = &role
	case "region":
		update.Region = &value
	default:
		return update, goerrors.New("unknown update field", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"field": field})
	}

	return update, update.Validate()
}
