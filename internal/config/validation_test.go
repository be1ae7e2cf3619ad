//nolint:goconst // Test files use repeated strings for clarity
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getValidConfig returns a valid configuration for testing
func getValidConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "ClinicalNLP",
			Version:     Version,
			Environment: "development",
			LogLevel:    "info",
			LogFormat:   "json",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9100,
		},
		NLPCloud: NLPCloudConfig{
			APIKey:     "test-api-key",
			BaseURL:    "https://api.nlpcloud.io",
			Timeout:    5 * time.Second,
			MaxRetries: 3,
			BaseDelay:  500 * time.Millisecond,
			Tasks: map[string]TaskConfig{
				"grammar": {Tier: "gpu", Model: "chatdolphin", Endpoint: "gs-correction"},
			},
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	cfg := getValidConfig()
	err := cfg.Validate()
	assert.NoError(t, err, "Valid configuration should not produce errors")
}

func TestValidateMissingAPIKeyIsNotFatal(t *testing.T) {
	cfg := getValidConfig()
	cfg.NLPCloud.APIKey = ""
	cfg.NLPCloud.Tasks = nil
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError string
	}{
		{
			name:        "missing app name",
			modify:      func(c *Config) { c.App.Name = "" },
			expectError: "app.name",
		},
		{
			name:        "invalid environment",
			modify:      func(c *Config) { c.App.Environment = "invalid_env" },
			expectError: "Invalid environment",
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.App.LogLevel = "verbose" },
			expectError: "app.log_level",
		},
		{
			name:        "invalid log format",
			modify:      func(c *Config) { c.App.LogFormat = "xml" },
			expectError: "app.log_format",
		},
		{
			name:        "missing api port",
			modify:      func(c *Config) { c.API.Port = 0 },
			expectError: "API port is required",
		},
		{
			name:        "invalid api port",
			modify:      func(c *Config) { c.API.Port = 70000 },
			expectError: "Invalid port",
		},
		{
			name:        "metrics port conflicts",
			modify:      func(c *Config) { c.Metrics.Port = c.API.Port },
			expectError: "conflicts with api.port",
		},
		{
			name:        "negative pool size",
			modify:      func(c *Config) { c.Database.PoolSize = -1 },
			expectError: "database.pool_size",
		},
		{
			name:        "non-postgres database url",
			modify:      func(c *Config) { c.Database.URL = "mysql://localhost/db" },
			expectError: "database.url",
		},
		{
			name:        "relative base url",
			modify:      func(c *Config) { c.NLPCloud.BaseURL = "api.nlpcloud.io" },
			expectError: "nlpcloud.base_url",
		},
		{
			name:        "unsupported scheme",
			modify:      func(c *Config) { c.NLPCloud.BaseURL = "ftp://api.nlpcloud.io" },
			expectError: "Unsupported scheme",
		},
		{
			name:        "zero timeout",
			modify:      func(c *Config) { c.NLPCloud.Timeout = 0 },
			expectError: "nlpcloud.timeout",
		},
		{
			name:        "negative retries",
			modify:      func(c *Config) { c.NLPCloud.MaxRetries = -1 },
			expectError: "must not be negative",
		},
		{
			name:        "too many retries",
			modify:      func(c *Config) { c.NLPCloud.MaxRetries = 11 },
			expectError: "too high",
		},
		{
			name:        "negative base delay",
			modify:      func(c *Config) { c.NLPCloud.BaseDelay = -time.Second },
			expectError: "nlpcloud.base_delay",
		},
		{
			name: "plain http in production",
			modify: func(c *Config) {
				c.App.Environment = "production"
				c.NLPCloud.BaseURL = "http://api.nlpcloud.io"
			},
			expectError: "HTTPS is required",
		},
		{
			name: "debug logging in production",
			modify: func(c *Config) {
				c.App.Environment = "production"
				c.App.LogLevel = "debug"
			},
			expectError: "Debug logging must be disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := getValidConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestValidateMetricsDisabledSkipsPort(t *testing.T) {
	cfg := getValidConfig()
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidationErrorsFormat(t *testing.T) {
	errs := ValidationErrors{
		{Field: "api.port", Message: "API port is required"},
		{Field: "nlpcloud.timeout", Message: "Timeout must be positive (e.g. 5s)"},
	}

	msg := errs.Error()
	assert.Contains(t, msg, "2 error(s)")
	assert.Contains(t, msg, "1. api.port: API port is required")
	assert.Contains(t, msg, "2. nlpcloud.timeout")
	assert.Empty(t, ValidationErrors{}.Error())
}
