// Package config loads and saves carledger settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDB      = "CARLEDGER_DB"
	EnvVehicle = "CARLEDGER_VEHICLE"
)

// Config holds all carledger configuration.
type Config struct {
	General   GeneralConfig               `toml:"general"`
	Display   DisplayConfig               `toml:"display"`
	Intervals map[string]IntervalOverride `toml:"intervals,omitempty"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultWindow  string `toml:"default_window"`
	DefaultVehicle string `toml:"default_vehicle,omitempty"`
	DBPath         string `toml:"db_path,omitempty"`
}

// DisplayConfig holds output settings.
type DisplayConfig struct {
	Currency string `toml:"currency"`
	Theme    string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultWindow: "month",
		},
		Display: DisplayConfig{
			Currency: "€",
			Theme:    "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "carledger")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "carledger")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "carledger")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "carledger")
}

// LoadEnv reads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DBPath returns the database path from env var, config, or the default
// location under DataDir, in that order.
func DBPath(cfg Config) string {
	if p := os.Getenv(EnvDB); p != "" {
		return p
	}
	if cfg.General.DBPath != "" {
		return cfg.General.DBPath
	}
	return filepath.Join(DataDir(), "carledger.db")
}

// DefaultVehicle returns the vehicle reference from env var or config.
func DefaultVehicle(cfg Config) string {
	if v := os.Getenv(EnvVehicle); v != "" {
		return v
	}
	return cfg.General.DefaultVehicle
}
