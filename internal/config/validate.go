package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// validURISchemes lists the connection URI schemes the driver accepts.
var validURISchemes = []string{"bolt://", "bolt+s://", "bolt+ssc://", "neo4j://", "neo4j+s://", "neo4j+ssc://"}

// Validate checks the configuration for errors.
// Returns ValidationErrors if validation fails.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	// Validate server config
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", cfg.Server.Port),
		})
	}

	if cfg.Server.Bind == "" {
		errs = append(errs, ValidationError{
			Field:   "server.bind",
			Message: "must not be empty",
		})
	}

	if cfg.Server.ShutdownTimeout < 1 {
		errs = append(errs, ValidationError{
			Field:   "server.shutdown_timeout",
			Message: fmt.Sprintf("must be at least 1 second, got %d", cfg.Server.ShutdownTimeout),
		})
	}

	if cfg.Server.RequestTimeout < 1 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout",
			Message: fmt.Sprintf("must be at least 1 second, got %d", cfg.Server.RequestTimeout),
		})
	}

	// Validate neo4j config
	if cfg.Neo4j.URI == "" {
		errs = append(errs, ValidationError{
			Field:   "neo4j.uri",
			Message: "must not be empty",
		})
	} else {
		valid := false
		for _, scheme := range validURISchemes {
			if strings.HasPrefix(cfg.Neo4j.URI, scheme) {
				valid = true
				break
			}
		}
		if !valid {
			errs = append(errs, ValidationError{
				Field:   "neo4j.uri",
				Message: fmt.Sprintf("must start with one of: %s; got %q", strings.Join(validURISchemes, ", "), cfg.Neo4j.URI),
			})
		}
	}

	if cfg.Neo4j.Username == "" {
		errs = append(errs, ValidationError{
			Field:   "neo4j.username",
			Message: "must not be empty",
		})
	}

	if cfg.Neo4j.Database == "" {
		errs = append(errs, ValidationError{
			Field:   "neo4j.database",
			Message: "must not be empty",
		})
	}

	if cfg.Neo4j.MaxPoolSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "neo4j.max_pool_size",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Neo4j.MaxPoolSize),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}
