package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/uptrace/bun/driver/sqliteshim"
	"gopkg.in/yaml.v3"

	orgauth "github.com/goliatone/go-orgauth"
)

// FileConfig holds the user-tunable settings of the admin tool.
type FileConfig struct {
	DatabasePath           string   `yaml:"database_path"`
	SessionDurationHours   int      `yaml:"session_duration_hours"`
	CredentialDurationDays int      `yaml:"credential_duration_days"`
	MaxLoginAttempts       int      `yaml:"max_login_attempts"`
	LockoutDurationMins    int      `yaml:"lockout_duration_mins"`
	PasswordLength         int      `yaml:"password_length"`
	HeadOfficeRegion       string   `yaml:"head_office_region"`
	BootstrapRegions       []string `yaml:"bootstrap_regions"`
	PingTimeoutExpression  string   `yaml:"ping_timeout"`
}

// ApplyDefaults fills zero-valued fields with the engine defaults.
func (cfg *FileConfig) ApplyDefaults() {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "orgadmin.db"
	}
	if cfg.SessionDurationHours == 0 {
		cfg.SessionDurationHours = int(orgauth.DefaultSessionDuration.Hours())
	}
	if cfg.CredentialDurationDays == 0 {
		cfg.CredentialDurationDays = int(orgauth.DefaultCredentialDuration.Hours() / 24)
	}
	if cfg.MaxLoginAttempts == 0 {
		cfg.MaxLoginAttempts = orgauth.DefaultMaxLoginAttempts
	}
	if cfg.LockoutDurationMins == 0 {
		cfg.LockoutDurationMins = int(orgauth.DefaultLockoutDuration.Minutes())
	}
	if cfg.PasswordLength == 0 {
		cfg.PasswordLength = orgauth.DefaultPasswordLength
	}
	if cfg.HeadOfficeRegion == "" {
		cfg.HeadOfficeRegion = orgauth.DefaultHeadOfficeRegion
	}
	if len(cfg.BootstrapRegions) == 0 {
		cfg.BootstrapRegions = orgauth.DefaultBootstrapRegions()
	}
	if cfg.PingTimeoutExpression == "" {
		cfg.PingTimeoutExpression = "5s"
	}
}

// validate checks that all configurable values are within acceptable ranges.
func (cfg *FileConfig) validate() error {
	var errs []string

	if cfg.SessionDurationHours < 1 {
		errs = append(errs, "session_duration_hours must be >= 1")
	}
	if cfg.CredentialDurationDays < 1 {
		errs = append(errs, "credential_duration_days must be >= 1")
	}
	if cfg.MaxLoginAttempts < 1 {
		errs = append(errs, "max_login_attempts must be >= 1")
	}
	if cfg.LockoutDurationMins < 1 {
		errs = append(errs, "lockout_duration_mins must be >= 1")
	}
	if cfg.PasswordLength < orgauth.MinPasswordLength {
		errs = append(errs, fmt.Sprintf("password_length must be >= %d", orgauth.MinPasswordLength))
	}
	if _, err := time.ParseDuration(cfg.PingTimeoutExpression); err != nil {
		errs = append(errs, fmt.Sprintf("ping_timeout is not a duration: %q", cfg.PingTimeoutExpression))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// EngineConfig converts the file settings into the engine's Config.
func (cfg *FileConfig) EngineConfig() *orgauth.SimpleConfig {
	out := orgauth.NewConfig()
	out.SessionDuration = time.Duration(cfg.SessionDurationHours) * time.Hour
	out.CredentialDuration = time.Duration(cfg.CredentialDurationDays) * 24 * time.Hour
	out.MaxLoginAttempts = cfg.MaxLoginAttempts
	out.LockoutDuration = time.Duration(cfg.LockoutDurationMins) * time.Minute
	out.PasswordLength = cfg.PasswordLength
	out.HeadOfficeRegion = cfg.HeadOfficeRegion
	out.BootstrapRegions = cfg.BootstrapRegions
	return out
}

// DSN returns the connection string for the sqlite driver.
func (cfg *FileConfig) DSN() string {
	return cfg.DatabasePath + "?_pragma=foreign_keys(1)"
}

// Persistence adapts the file settings to the persistence client config.
func (cfg *FileConfig) Persistence() PersistenceConfig {
	return PersistenceConfig{
		dsn:         cfg.DSN(),
		pingTimeout: cfg.PingTimeoutExpression,
	}
}

// PersistenceConfig exposes the getters the persistence client reads.
type PersistenceConfig struct {
	dsn         string
	pingTimeout string
}

func (p PersistenceConfig) GetDSN() string      { return p.dsn }
func (p PersistenceConfig) GetDriver() string   { return sqliteshim.ShimName }
func (p PersistenceConfig) GetServer() string   { return "" }
func (p PersistenceConfig) GetDatabase() string { return p.dsn }
func (p PersistenceConfig) GetDebug() bool      { return false }

func (p PersistenceConfig) GetOtelIdentifier() string { return "" }

func (p PersistenceConfig) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.pingTimeout)
	if err != nil {
		panic(fmt.Sprintf("unable to parse time: expr %s", p.pingTimeout))
	}
	return dur
}

// LoadConfig reads the config file at path, returning defaults when the
// file does not exist.
func LoadConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
