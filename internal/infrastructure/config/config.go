// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "lore-sharing.yaml"
	// DefaultAddr is the default listen address for the HTTP server.
	DefaultAddr = ":3000"
	// DefaultSQLitePath is the default SQLite database file.
	DefaultSQLitePath = "lore-sharing.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Server ServerConfig `yaml:"server,omitempty"`
	SQLite SQLiteConfig `yaml:"sqlite,omitempty"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address, host:port.
	Addr string `yaml:"addr,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		SQLite: SQLiteConfig{
			Path: DefaultSQLitePath,
		},
	}
}

// Load loads configuration from the given file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("LORE_SHARING_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("LORE_SHARING_SQLITE_PATH"); path != "" {
		c.SQLite.Path = path
	}
}
