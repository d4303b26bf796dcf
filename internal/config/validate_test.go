package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return NewDefaultConfig()
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Validate(&cfg); err != nil {
		t.Errorf("Validate(defaults) = %v; want nil", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "port too low",
			mutate: func(c *Config) { c.Server.Port = 0 },
			field:  "server.port",
		},
		{
			name:   "port too high",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			field:  "server.port",
		},
		{
			name:   "empty bind",
			mutate: func(c *Config) { c.Server.Bind = "" },
			field:  "server.bind",
		},
		{
			name:   "zero shutdown timeout",
			mutate: func(c *Config) { c.Server.ShutdownTimeout = 0 },
			field:  "server.shutdown_timeout",
		},
		{
			name:   "zero request timeout",
			mutate: func(c *Config) { c.Server.RequestTimeout = 0 },
			field:  "server.request_timeout",
		},
		{
			name:   "empty uri",
			mutate: func(c *Config) { c.Neo4j.URI = "" },
			field:  "neo4j.uri",
		},
		{
			name:   "bad uri scheme",
			mutate: func(c *Config) { c.Neo4j.URI = "http://localhost:7474" },
			field:  "neo4j.uri",
		},
		{
			name:   "empty username",
			mutate: func(c *Config) { c.Neo4j.Username = "" },
			field:  "neo4j.username",
		},
		{
			name:   "empty database",
			mutate: func(c *Config) { c.Neo4j.Database = "" },
			field:  "neo4j.database",
		},
		{
			name:   "zero pool size",
			mutate: func(c *Config) { c.Neo4j.MaxPoolSize = 0 },
			field:  "neo4j.max_pool_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			if err == nil {
				t.Fatal("Validate() = nil; want error")
			}
			if !IsValidationError(err) {
				t.Errorf("IsValidationError(%v) = false; want true", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.field)
			}
		})
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Neo4j.Username = ""
	cfg.Neo4j.Database = ""

	err := Validate(&cfg)
	if err == nil {
		t.Fatal("Validate() = nil; want errors")
	}

	ves, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T; want ValidationErrors", err)
	}
	if len(ves) != 3 {
		t.Errorf("got %d validation errors; want 3", len(ves))
	}
}
