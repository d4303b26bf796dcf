package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	DefaultLogLevel = "info"
	DefaultLogFile  = "~/.config/graphgate/graphgate.log"

	// Server configuration defaults.
	DefaultServerBind            = "127.0.0.1"
	DefaultServerPort            = 7480
	DefaultServerShutdownTimeout = 30 // seconds
	DefaultServerRequestTimeout  = 60 // seconds

	// Neo4j configuration defaults.
	DefaultNeo4jURI         = "bolt://localhost:7687"
	DefaultNeo4jUsername    = "neo4j"
	DefaultNeo4jPasswordEnv = "NEO4J_PASSWORD"
	DefaultNeo4jDatabase    = "neo4j"
	DefaultNeo4jMaxPoolSize = 100
)

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFile,
		Server: ServerConfig{
			Bind:            DefaultServerBind,
			Port:            DefaultServerPort,
			ShutdownTimeout: DefaultServerShutdownTimeout,
			RequestTimeout:  DefaultServerRequestTimeout,
		},
		Neo4j: Neo4jConfig{
			URI:         DefaultNeo4jURI,
			Username:    DefaultNeo4jUsername,
			PasswordEnv: DefaultNeo4jPasswordEnv,
			Database:    DefaultNeo4jDatabase,
			MaxPoolSize: DefaultNeo4jMaxPoolSize,
		},
	}
}

// setDefaults registers all default configuration values with the global viper.
// Called during Init() before reading config files.
func setDefaults() {
	viper.SetDefault("log_level", DefaultLogLevel)
	viper.SetDefault("log_file", DefaultLogFile)

	// Server defaults
	viper.SetDefault("server.bind", DefaultServerBind)
	viper.SetDefault("server.port", DefaultServerPort)
	viper.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	viper.SetDefault("server.request_timeout", DefaultServerRequestTimeout)

	// Neo4j defaults
	viper.SetDefault("neo4j.uri", DefaultNeo4jURI)
	viper.SetDefault("neo4j.username", DefaultNeo4jUsername)
	viper.SetDefault("neo4j.password_env", DefaultNeo4jPasswordEnv)
	viper.SetDefault("neo4j.database", DefaultNeo4jDatabase)
	viper.SetDefault("neo4j.max_pool_size", DefaultNeo4jMaxPoolSize)
}
