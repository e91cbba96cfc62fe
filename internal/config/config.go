// Package config defines the explicit configuration threaded through the
// harness. The engine packages (codec, match, record) never read ambient
// state; env and file loading happen here, at the calling layer, and the
// resulting Config value is passed down.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend selects the record store implementation.
type Backend string

const (
	// BackendFile stores one JSON file per record.
	BackendFile Backend = "file"
	// BackendSQLite stores records in a single SQLite database.
	BackendSQLite Backend = "sqlite"
)

// Config carries all harness settings.
type Config struct {
	// StorageDir is the record store location: a directory for the file
	// backend, the parent of records.db for the sqlite backend.
	StorageDir string `yaml:"storage_dir"`

	// Backend selects the store implementation.
	Backend Backend `yaml:"backend"`

	// Tolerance is the absolute float comparison tolerance.
	Tolerance float64 `yaml:"tolerance"`

	// Update forces re-recording instead of verification.
	Update bool `yaml:"update"`

	// Strict makes verification failures return errors instead of being
	// logged and swallowed.
	Strict bool `yaml:"strict"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		StorageDir: ".regrest",
		Backend:    BackendFile,
		Tolerance:  1e-9,
	}
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error - the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv applies REGREST_* environment overrides on top of cfg:
//
//	REGREST_STORAGE_DIR     store location
//	REGREST_BACKEND         "file" or "sqlite"
//	REGREST_TOLERANCE       float comparison tolerance
//	REGREST_UPDATE_MODE     1/true re-records everything
//	REGREST_RAISE_ON_ERROR  1/true makes failures hard errors
func FromEnv(cfg Config) (Config, error) {
	if v := os.Getenv("REGREST_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}
	if v := os.Getenv("REGREST_BACKEND"); v != "" {
		cfg.Backend = Backend(v)
	}
	if v := os.Getenv("REGREST_TOLERANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("REGREST_TOLERANCE: %w", err)
		}
		cfg.Tolerance = f
	}
	if v := os.Getenv("REGREST_UPDATE_MODE"); v != "" {
		cfg.Update = IsTruthy(v)
	}
	if v := os.Getenv("REGREST_RAISE_ON_ERROR"); v != "" {
		cfg.Strict = IsTruthy(v)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want file or sqlite)", c.Backend)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative, got %g", c.Tolerance)
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir must not be empty")
	}
	return nil
}

// IsTruthy reports whether an environment value means "enabled". Accepted
// forms are 1, true, yes, and on, case-insensitively.
func IsTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
