package config

import "os"

// Config is the root configuration structure for the application.
type Config struct {
	LogLevel string       `yaml:"log_level" mapstructure:"log_level"`
	LogFile  string       `yaml:"log_file" mapstructure:"log_file"`
	Server   ServerConfig `yaml:"server" mapstructure:"server"`
	Neo4j    Neo4jConfig  `yaml:"neo4j" mapstructure:"neo4j"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Bind            string `yaml:"bind" mapstructure:"bind"`
	Port            int    `yaml:"port" mapstructure:"port"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"` // seconds
	RequestTimeout  int    `yaml:"request_timeout" mapstructure:"request_timeout"`   // seconds
}

// Neo4jConfig holds graph database connection configuration.
type Neo4jConfig struct {
	URI         string  `yaml:"uri" mapstructure:"uri"`
	Username    string  `yaml:"username" mapstructure:"username"`
	Password    *string `yaml:"password,omitempty" mapstructure:"password"`
	PasswordEnv string  `yaml:"password_env" mapstructure:"password_env"`
	Database    string  `yaml:"database" mapstructure:"database"`
	MaxPoolSize int     `yaml:"max_pool_size" mapstructure:"max_pool_size"`

	// IndexLabels lists node labels that get lookup indexes on startup.
	IndexLabels []string `yaml:"index_labels,omitempty" mapstructure:"index_labels"`
}

// ResolvePassword returns the password from config or falls back to the
// environment variable named by PasswordEnv.
func (c *Neo4jConfig) ResolvePassword() string {
	if c.Password != nil && *c.Password != "" {
		return *c.Password
	}
	return os.Getenv(c.PasswordEnv)
}
