// Package config holds the tool's own preferences, separate from the
// extension settings it pushes.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds user preferences for the readerview tool.
type Config struct {
	ChromeBin           string `json:"chrome_bin"`            // Chrome binary override
	DebugPort           int    `json:"debug_port"`            // DevTools port
	SettingsDir         string `json:"settings_dir"`          // where the pushed files live
	Headless            bool   `json:"headless"`              // headless Chrome (CI)
	NavigationTimeoutMs int    `json:"navigation_timeout_ms"` // per-navigation budget
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DebugPort:           9333,
		SettingsDir:         "my-settings",
		NavigationTimeoutMs: 30000,
	}
}

// ConfigDir returns the directory where config and browser state live.
// READERVIEW_CONFIG_DIR overrides it, mostly for tests.
func ConfigDir() (string, error) {
	if dir := os.Getenv("READERVIEW_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".readerview"), nil
}

// ConfigFile returns the full path to the config file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from disk, falling back to defaults when no
// file exists yet.
func Load() (Config, error) {
	path, err := ConfigFile()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

// Save writes the configuration to disk.
func Save(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path, err := ConfigFile()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
