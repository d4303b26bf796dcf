package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and returns the typed configuration.
// It searches for configuration files in priority order:
//  1. Directory specified by GRAPHGATE_CONFIG_DIR environment variable
//  2. ~/.config/graphgate/
//  3. Current working directory (.)
//
// If no config file is found, defaults are used.
// If a config file exists but is invalid, returns a validation error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GRAPHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register default values
	setViperDefaults(v)

	// Add config paths in priority order
	if envPath := os.Getenv("GRAPHGATE_CONFIG_DIR"); envPath != "" {
		v.AddConfigPath(envPath)
	}

	if home := os.Getenv("HOME"); home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", "graphgate"))
	}

	v.AddConfigPath(".")

	err := v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config; %w", err)
		}
	}

	return unmarshalConfig(v)
}

// LoadFromPath reads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GRAPHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register default values
	setViperDefaults(v)

	err := v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to read config from %s; %w", path, err)
	}

	return unmarshalConfig(v)
}

// LoadWithDefaults returns configuration using defaults only.
// Use this in contexts where a config file is not required.
func LoadWithDefaults() *Config {
	cfg := NewDefaultConfig()
	return &cfg
}

// unmarshalConfig converts viper config to typed Config struct.
func unmarshalConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	err := v.Unmarshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setViperDefaults registers all default configuration values with a viper instance.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", DefaultLogFile)

	// Server defaults
	v.SetDefault("server.bind", DefaultServerBind)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.request_timeout", DefaultServerRequestTimeout)

	// Neo4j defaults
	v.SetDefault("neo4j.uri", DefaultNeo4jURI)
	v.SetDefault("neo4j.username", DefaultNeo4jUsername)
	v.SetDefault("neo4j.password_env", DefaultNeo4jPasswordEnv)
	v.SetDefault("neo4j.database", DefaultNeo4jDatabase)
	v.SetDefault("neo4j.max_pool_size", DefaultNeo4jMaxPoolSize)
}
