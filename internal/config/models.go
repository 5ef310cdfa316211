package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// currentVersion is the config file format version.
const currentVersion = 1

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config represents the entire user configuration file.
// Every value can be overridden with a COUPONWIZ_* environment variable.
type Config struct {
	Version int           `yaml:"version"`
	Storage StorageConfig `yaml:"storage"`
	Wizard  WizardConfig  `yaml:"wizard"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// StorageConfig selects where coupons and drafts are kept.
type StorageConfig struct {
	Backend      string `yaml:"backend" env:"STORE"` // "sqlite" or "memory"
	DatabasePath string `yaml:"database_path,omitempty" env:"DB_PATH"`
	DraftPath    string `yaml:"draft_path,omitempty" env:"DRAFT_PATH"`
}

// WizardConfig holds authoring preferences.
type WizardConfig struct {
	// AutosaveDelay is the idle time before a draft is saved; 0 disables autosave.
	AutosaveDelay time.Duration `yaml:"autosave_delay" env:"AUTOSAVE_DELAY"`
	Currency      string        `yaml:"currency" env:"CURRENCY"`
}

// LoggingConfig configures the debug log. Logging is off unless a level is set.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty" env:"LOG_LEVEL"`
	File  string `yaml:"file,omitempty" env:"LOG_FILE"`
}

// Default returns the configuration used when no file exists, with data files
// kept in dir.
func Default(dir string) *Config {
	return &Config{
		Version: currentVersion,
		Storage: StorageConfig{
			Backend:      BackendSQLite,
			DatabasePath: filepath.Join(dir, "coupons.db"),
			DraftPath:    filepath.Join(dir, "draft.yaml"),
		},
		Wizard: WizardConfig{
			AutosaveDelay: 2 * time.Second,
			Currency:      "$",
		},
	}
}

// fillDefaults sets empty values from def.
func (c *Config) fillDefaults(def *Config) {
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = def.Storage.DatabasePath
	}
	if c.Storage.DraftPath == "" {
		c.Storage.DraftPath = def.Storage.DraftPath
	}
	if c.Wizard.Currency == "" {
		c.Wizard.Currency = def.Wizard.Currency
	}
}

// Validate checks the configuration for values the application cannot use.
func (c *Config) Validate() error {
	var errs []error

	if c.Version != currentVersion {
		errs = append(errs, fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, currentVersion))
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if strings.TrimSpace(c.Storage.DatabasePath) == "" {
			errs = append(errs, fmt.Errorf("storage.database_path is required for the sqlite backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q (expected %s or %s)", c.Storage.Backend, BackendSQLite, BackendMemory))
	}

	if c.Wizard.AutosaveDelay < 0 {
		errs = append(errs, fmt.Errorf("wizard.autosave_delay cannot be negative"))
	}
	if strings.TrimSpace(c.Wizard.Currency) == "" {
		errs = append(errs, fmt.Errorf("wizard.currency is required"))
	}

	return errors.Join(errs...)
}
