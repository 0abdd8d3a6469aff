// Package config provides configuration management for Circadian.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Circadian configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`
	HTTP  HTTPConfig  `yaml:"http"`
	Stats StatsConfig `yaml:"stats"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig selects and locates the record store.
type StoreConfig struct {
	// Backend is "json" (one file per collection) or "sqlite".
	Backend string `yaml:"backend"`
	// DataDir holds the JSON collection files.
	DataDir string `yaml:"data_dir"`
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// HTTPConfig configures the local API daemon.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// ShutdownTimeout bounds the graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StatsConfig configures the aggregation engine.
type StatsConfig struct {
	// Timezone decides which calendar date "today" is. Empty means local time.
	Timezone string `yaml:"timezone"`
	// Window is the default number of trailing days for statistics.
	Window int `yaml:"window"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    "json",
			DataDir:    "./data",
			SQLitePath: "./data/circadian.db",
		},
		HTTP: HTTPConfig{
			Addr:            "127.0.0.1:7002",
			ShutdownTimeout: 10 * time.Second,
		},
		Stats: StatsConfig{
			Timezone: "",
			Window:   7,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "json":
		if c.Store.DataDir == "" {
			return fmt.Errorf("store.data_dir is required for the json backend")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("store.backend must be json or sqlite, got %q", c.Store.Backend)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Stats.Window < 0 {
		return fmt.Errorf("stats.window must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Location resolves Stats.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Stats.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Stats.Timezone)
	if err != nil {
		return nil, fmt.Errorf("stats.timezone: %w", err)
	}
	return loc, nil
}

// StoreLocation returns the directory or database file of the configured backend.
func (c *Config) StoreLocation() string {
	if c.Store.Backend == "sqlite" {
		return c.Store.SQLitePath
	}
	return c.Store.DataDir
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q", name)
}

// NewLogger builds the text logger used by the binaries at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Clock returns time.Now in the configured timezone.
func (c *Config) Clock() (func() time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveToFile saves the configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge overlays the non-zero fields of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.SQLitePath != "" {
		c.Store.SQLitePath = other.Store.SQLitePath
	}

	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}
	if other.HTTP.ShutdownTimeout != 0 {
		c.HTTP.ShutdownTimeout = other.HTTP.ShutdownTimeout
	}

	if other.Stats.Timezone != "" {
		c.Stats.Timezone = other.Stats.Timezone
	}
	if other.Stats.Window != 0 {
		c.Stats.Window = other.Stats.Window
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
