// Package config handles configuration loading for tasktree.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for tasktree.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Log      LogConfig      `mapstructure:"log"`
}

// StorageConfig selects and parameterizes the node store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend string `mapstructure:"backend"`
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
	// DSN is the PostgreSQL connection string.
	DSN string `mapstructure:"dsn"`
}

// SnapshotConfig holds card snapshot settings.
type SnapshotConfig struct {
	// Dir is where card snapshot files are written.
	Dir string `mapstructure:"dir"`
	// AutoExport re-exports a card's snapshot after every committed change.
	AutoExport bool `mapstructure:"auto_export"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want sqlite or postgres)", c.Storage.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TASKTREE_*)
// 2. Project config (.tasktree.yaml in current directory or parent)
// 3. User config (~/.config/tasktree/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Project config takes precedence over the user config.
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("TASKTREE")
	v.AutomaticEnv()
	v.BindEnv("storage.backend", "TASKTREE_STORAGE_BACKEND")
	v.BindEnv("storage.path", "TASKTREE_STORAGE_PATH")
	v.BindEnv("storage.dsn", "TASKTREE_STORAGE_DSN")
	v.BindEnv("snapshot.dir", "TASKTREE_SNAPSHOT_DIR")
	v.BindEnv("log.level", "TASKTREE_LOG_LEVEL")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references, DSNs commonly carry credentials this way.
	cfg.Storage.DSN = os.ExpandEnv(cfg.Storage.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Storage.DSN = os.ExpandEnv(cfg.Storage.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    defaultDBPath(),
		},
		Snapshot: SnapshotConfig{
			Dir: defaultSnapshotDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", defaultDBPath())
	v.SetDefault("storage.dsn", "")

	v.SetDefault("snapshot.dir", defaultSnapshotDir())
	v.SetDefault("snapshot.auto_export", false)

	v.SetDefault("log.level", "info")
}

func defaultDBPath() string {
	return filepath.Join(getUserDataDir(), "tasktree.db")
}

func defaultSnapshotDir() string {
	return filepath.Join(getUserDataDir(), "snapshots")
}

// getUserConfigDir returns the XDG config directory for tasktree.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tasktree")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tasktree")
	}
	return filepath.Join(home, ".config", "tasktree")
}

// getUserDataDir returns the XDG data directory for tasktree.
func getUserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "tasktree")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "tasktree")
	}
	return filepath.Join(home, ".local", "share", "tasktree")
}

// findProjectConfig searches for .tasktree.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".tasktree.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
