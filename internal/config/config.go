package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/utils"
)

// userConfigDirFunc is swapped in tests
var userConfigDirFunc = os.UserConfigDir

// NotificationConfig controls platform notification delivery
type NotificationConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Mode    string `yaml:"mode" envconfig:"MODE"` // tray | stdout | none
}

// Config holds application settings. Precedence, lowest first:
// built-in defaults, the YAML file, HABITKEEPER_* environment variables.
// CLI flags are applied on top by the caller.
type Config struct {
	Database        string             `yaml:"database" envconfig:"DATABASE"`
	Timezone        string             `yaml:"timezone" envconfig:"TIMEZONE"`
	PersistDebounce time.Duration      `yaml:"persist_debounce" envconfig:"PERSIST_DEBOUNCE"`
	Debug           bool               `yaml:"debug" envconfig:"DEBUG"`
	Notifications   NotificationConfig `yaml:"notifications" envconfig:"NOTIFICATIONS"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Database:        constants.DefaultConfigPath,
		Timezone:        "Local",
		PersistDebounce: constants.PersistDebounce,
		Notifications: NotificationConfig{
			Enabled: true,
			Mode:    constants.NotifyModeTray,
		},
	}
}

// Dir returns the application's config directory (~/.config/habitkeeper on Linux)
func Dir() (string, error) {
	base, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(base, constants.AppName), nil
}

// DefaultPath returns the location of the YAML config file
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// Load reads path (a missing file is not an error), then applies environment overrides.
// An empty path means DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	// Unset variables leave the field as-is since no field carries a default tag.
	if err := envconfig.Process(constants.EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges after all sources were merged
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database must not be empty")
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.PersistDebounce < 0 {
		return fmt.Errorf("persist_debounce must not be negative, got %s", c.PersistDebounce)
	}
	switch c.Notifications.Mode {
	case constants.NotifyModeTray, constants.NotifyModeStdout, constants.NotifyModeNone:
	default:
		return fmt.Errorf("unknown notifications.mode %q (expected tray, stdout or none)", c.Notifications.Mode)
	}
	return nil
}

// Save writes the config as YAML, creating the directory if needed
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ExpandPath resolves a leading ~ against the user's home directory
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
