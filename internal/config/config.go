// Package config handles resolving configuration.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Secrets shorter than this cannot meaningfully sign session cookies.
const minSecretLen = 32

// Config is the application configuration, resolved from a YAML file merged
// over defaults.
type Config struct {
	LogLevel      string `yaml:"log_level"`
	WebAddress    string `yaml:"web_address"`
	DBFilepath    string `yaml:"db_filepath"`
	SessionSecret string `yaml:"session_secret"`
	DevMode       bool   `yaml:"dev_mode"`
}

// Default returns a version of the config with all default values populated.
// Note that this configuration is _not_ valid, as session_secret must be set;
// see [NewSessionSecret].
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		WebAddress:    "localhost:9999",
		DBFilepath:    filepath.Join(xdg.DataHome, "watchlist", "db.sqlite"),
		SessionSecret: "", // must be set, usually at first run
		DevMode:       false,
	}
}

// NewSessionSecret generates a fresh hex-encoded cookie signing secret.
func NewSessionSecret() string {
	buf := make([]byte, minSecretLen)
	_, _ = rand.Read(buf) // never fails per crypto/rand docs
	return hex.EncodeToString(buf)
}

// Load loads a YAML configuration file from a path, merges it with defaults,
// and validates it for completeness.
func Load(path string) (*Config, error) {
	bytes, err := os.ReadFile(path) //nolint:gosec // allow the config file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err = yaml.Unmarshal(bytes, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for completeness.
func (c *Config) Validate() error {
	if c.WebAddress == "" {
		return errors.New("web_address must be set")
	}
	if c.DBFilepath == "" {
		return errors.New("db_filepath must be set")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug|info|warn|error, got %q", c.LogLevel)
	}
	if _, err := c.SecretBytes(); err != nil {
		return err
	}
	return nil
}

// SecretBytes decodes the session secret for use as a cookie signing key.
func (c *Config) SecretBytes() ([]byte, error) {
	secret, err := hex.DecodeString(c.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("session_secret must be hex encoded: %w", err)
	}
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("session_secret must decode to at least %d bytes", minSecretLen)
	}
	return secret, nil
}
