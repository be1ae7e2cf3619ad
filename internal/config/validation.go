package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Validate checks the structural configuration. A missing API key or task
// model is not a startup error; the gateway reports it per call.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateDatabase()...)
	errors = append(errors, c.validateNLPCloud()...)
	errors = append(errors, c.validateEnvironmentRequirements()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Message: "Application name is required",
		})
	}

	validEnvs := []string{"development", "staging", "production"}
	if !contains(validEnvs, c.App.Environment) {
		errors = append(errors, ValidationError{
			Field:   "app.environment",
			Message: fmt.Sprintf("Invalid environment '%s'. Must be one of: %v", c.App.Environment, validEnvs),
		})
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(c.App.LogLevel)) {
		errors = append(errors, ValidationError{
			Field:   "app.log_level",
			Message: fmt.Sprintf("Invalid log level '%s'. Must be one of: %v", c.App.LogLevel, validLevels),
		})
	}

	if c.App.LogFormat != "json" && c.App.LogFormat != "console" {
		errors = append(errors, ValidationError{
			Field:   "app.log_format",
			Message: fmt.Sprintf("Invalid log format '%s'. Must be json or console", c.App.LogFormat),
		})
	}

	return errors
}

func (c *Config) validateAPI() ValidationErrors {
	return validatePort("api.port", "API", c.API.Port)
}

func (c *Config) validateMetrics() ValidationErrors {
	if !c.Metrics.Enabled {
		return nil
	}

	errors := validatePort("metrics.port", "Metrics", c.Metrics.Port)
	if c.Metrics.Port != 0 && c.Metrics.Port == c.API.Port {
		errors = append(errors, ValidationError{
			Field:   "metrics.port",
			Message: fmt.Sprintf("Metrics port %d conflicts with api.port", c.Metrics.Port),
		})
	}
	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors

	if c.Database.PoolSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "database.pool_size",
			Message: fmt.Sprintf("Invalid pool size %d. Must not be negative", c.Database.PoolSize),
		})
	}

	if c.Database.Enabled() {
		if u, err := url.Parse(c.Database.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "Database URL must be a postgres:// connection string",
			})
		}
	}

	return errors
}

func (c *Config) validateNLPCloud() ValidationErrors {
	var errors ValidationErrors
	nc := c.NLPCloud

	if u, err := url.Parse(strings.TrimSpace(nc.BaseURL)); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "nlpcloud.base_url",
			Message: fmt.Sprintf("Invalid base URL '%s'. Must be an absolute http(s) URL", nc.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, ValidationError{
			Field:   "nlpcloud.base_url",
			Message: fmt.Sprintf("Unsupported scheme '%s'. Must be http or https", u.Scheme),
		})
	}

	if nc.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "nlpcloud.timeout",
			Message: "Timeout must be positive (e.g. 5s)",
		})
	}

	if nc.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "nlpcloud.max_retries",
			Message: fmt.Sprintf("Max retries %d must not be negative", nc.MaxRetries),
		})
	} else if nc.MaxRetries > 10 {
		errors = append(errors, ValidationError{
			Field:   "nlpcloud.max_retries",
			Message: fmt.Sprintf("Max retries %d is too high (maximum 10)", nc.MaxRetries),
		})
	}

	if nc.BaseDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "nlpcloud.base_delay",
			Message: "Base delay must not be negative",
		})
	}

	return errors
}

func (c *Config) validateEnvironmentRequirements() ValidationErrors {
	var errors ValidationErrors

	if c.App.Environment == "production" {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.NLPCloud.BaseURL)), "http://") {
			errors = append(errors, ValidationError{
				Field:   "nlpcloud.base_url",
				Message: "HTTPS is required for the NLP Cloud base URL in production",
			})
		}
		if strings.EqualFold(c.App.LogLevel, "debug") || strings.EqualFold(c.App.LogLevel, "trace") {
			errors = append(errors, ValidationError{
				Field:   "app.log_level",
				Message: "Debug logging must be disabled in production",
			})
		}
	}

	return errors
}

func validatePort(field, name string, port int) ValidationErrors {
	if port == 0 {
		return ValidationErrors{{Field: field, Message: name + " port is required"}}
	}
	if port < 1 || port > 65535 {
		return ValidationErrors{{Field: field, Message: fmt.Sprintf("Invalid port %d. Must be between 1-65535", port)}}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
