package orgauth

import "time"

// Default engine tunables. DefaultHeadOfficeRegion hosts the super admin
// and can never be deleted.
const (
	DefaultSessionDuration    = 8 * time.Hour
	DefaultCredentialDuration = 90 * 24 * time.Hour
	DefaultMaxLoginAttempts   = 3
	DefaultLockoutDuration    = 15 * time.Minute
	DefaultPasswordLength     = 12
	DefaultHeadOfficeRegion   = "Paris"
)

// DefaultBootstrapRegions are the branch regions provisioned with a
// regional admin on first run.
func DefaultBootstrapRegions() []string {
	return []string{"Rennes", "Strasbourg", "Nantes", "Grenoble"}
}

// SimpleConfig is a value implementation of Config. The zero value is not
// usable; call NewConfig to get defaults and override fields as needed.
type SimpleConfig struct {
	SessionDuration    time.Duration
	CredentialDuration time.Duration
	MaxLoginAttempts   int
	LockoutDuration    time.Duration
	PasswordLength     int
	HeadOfficeRegion   string
	BootstrapRegions   []string
}

// NewConfig returns a SimpleConfig populated with the default tunables
func NewConfig() *SimpleConfig {
	return &SimpleConfig{
		SessionDuration:    DefaultSessionDuration,
		CredentialDuration: DefaultCredentialDuration,
		MaxLoginAttempts:   DefaultMaxLoginAttempts,
		LockoutDuration:    DefaultLockoutDuration,
		PasswordLength:     DefaultPasswordLength,
		HeadOfficeRegion:   DefaultHeadOfficeRegion,
		BootstrapRegions:   DefaultBootstrapRegions(),
	}
}

func (c *SimpleConfig) GetSessionDuration() time.Duration    { return c.SessionDuration }
func (c *SimpleConfig) GetCredentialDuration() time.Duration { return c.CredentialDuration }
func (c *SimpleConfig) GetMaxLoginAttempts() int             { return c.MaxLoginAttempts }
func (c *SimpleConfig) GetLockoutDuration() time.Duration    { return c.LockoutDuration }
func (c *SimpleConfig) GetPasswordLength() int               { return c.PasswordLength }
func (c *SimpleConfig) GetHeadOfficeRegion() string          { return c.HeadOfficeRegion }
func (c *SimpleConfig) GetBootstrapRegions() []string        { return c.BootstrapRegions }

var _ Config = (*SimpleConfig)(nil)
