// Package config manages application configuration through viper with
// support for config files, environment variables, and defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// configFilePath stores the path to the loaded config file
var configFilePath string

// Init initializes the configuration subsystem.
// It searches for configuration files in priority order:
//  1. Directory specified by GRAPHGATE_CONFIG_DIR environment variable
//  2. ~/.config/graphgate/
//  3. Current working directory (.)
//
// If no config file is found, sensible defaults are used.
// If a config file exists but is invalid or unreadable, Init returns an error.
func Init() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("GRAPHGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register default values
	setDefaults()

	if envPath := os.Getenv("GRAPHGATE_CONFIG_DIR"); envPath != "" {
		viper.AddConfigPath(envPath)
	}

	if home := os.Getenv("HOME"); home != "" {
		viper.AddConfigPath(filepath.Join(home, ".config", "graphgate"))
	}

	viper.AddConfigPath(".")

	err := viper.ReadInConfig()
	if err != nil {
		// A missing config file is acceptable; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			configFilePath = ""
			return nil
		}

		return fmt.Errorf("failed to read config; %w", err)
	}

	configFilePath = viper.ConfigFileUsed()

	slog.Info("config initialized", "file", configFilePath)

	return nil
}

// ConfigFilePath returns the path to the loaded config file,
// or empty string if using defaults only.
func ConfigFilePath() string {
	return configFilePath
}

// Reset clears the configuration state for testing purposes.
func Reset() {
	viper.Reset()
	configFilePath = ""
}

// GetString returns the string value for the given key.
// Returns empty string if key is not found.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns the integer value for the given key.
// Returns 0 if key is not found or value cannot be converted to int.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns the boolean value for the given key.
// Returns false if key is not found or value cannot be converted to bool.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// SetDefault sets a default value for the given key.
func SetDefault(key string, value any) {
	viper.SetDefault(key, value)
}

// Set sets a value for the given key, overriding defaults and config file values.
// Primarily used for testing.
func Set(key string, value any) {
	viper.Set(key, value)
}

// GetPath returns the string value for the given key with ~ expanded to $HOME.
// Returns empty string if key is not found.
func GetPath(key string) string {
	return expandHome(viper.GetString(key))
}

// expandHome expands a leading ~ in path to the user's home directory.
// Only expands "~" alone or "~/..." patterns. Patterns like "~user" are not expanded.
// Returns the path unchanged if it doesn't start with ~/ or if home dir cannot be determined.
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	// Only expand "~" or "~/..."
	if len(path) > 1 && path[1] != '/' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return home
	}

	return filepath.Join(home, path[2:])
}

// GetAllSettings returns all configuration settings as a map.
func GetAllSettings() map[string]any {
	return viper.AllSettings()
}

// Reload re-reads the configuration from disk and runs registered reload hooks.
// On failure, the previous configuration is retained and hooks do not run.
func Reload() error {
	// Store current settings in case reload fails
	currentSettings := viper.AllSettings()

	err := viper.ReadInConfig()
	if err != nil {
		// Restore previous settings on failure
		for key, value := range currentSettings {
			viper.Set(key, value)
		}
		slog.Error("config reload failed; retaining previous values", "error", err)
		return fmt.Errorf("failed to reload config; %w", err)
	}

	slog.Info("config reloaded", "file", viper.ConfigFileUsed())
	runReloadHooks()
	return nil
}
