package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
)

// redactedKey is what secret managers leave behind when a key is scrubbed
const redactedKey = "***redacted***"

// ValidatorOptions contains options for startup validation
type ValidatorOptions struct {
	// Strict turns startup warnings into a startup error
	Strict bool
}

// Validator performs startup checks that do not block the process by default.
// A missing credential still lets the server start; every NLP call then
// reports a configuration error naming the setting.
type Validator struct {
	config  *Config
	options ValidatorOptions
}

// NewValidator creates a new startup validator
func NewValidator(config *Config, options ValidatorOptions) *Validator {
	return &Validator{
		config:  config,
		options: options,
	}
}

// ValidateStartup logs every startup warning and, in strict mode, fails on any
func (v *Validator) ValidateStartup() error {
	log.Info().Msg("Validating configuration...")

	warnings := v.Warnings()
	for _, w := range warnings {
		log.Warn().Msg(w)
	}

	if v.options.Strict && len(warnings) > 0 {
		var errMsg strings.Builder
		errMsg.WriteString("startup validation failed:\n\n")
		for _, w := range warnings {
			errMsg.WriteString(fmt.Sprintf("  - %s\n", w))
		}
		return fmt.Errorf("%s", errMsg.String())
	}

	log.Info().Int("warnings", len(warnings)).Msg("Configuration validation completed")
	return nil
}

// Warnings lists the settings that will make NLP calls fail
func (v *Validator) Warnings() []string {
	var warnings []string
	nc := v.config.NLPCloud

	key := strings.TrimSpace(nc.APIKey)
	switch {
	case key == "" || key == redactedKey:
		warnings = append(warnings, "nlpcloud.api_key is not set; NLP requests will fail until it is configured")
	case isPlaceholderValue(key):
		warnings = append(warnings, "nlpcloud.api_key appears to be a placeholder value")
	}

	tasks := nc.Gateway().Tasks
	for _, kind := range nlpcloud.AllTasks {
		tc := tasks[kind]
		if strings.Trim(strings.TrimSpace(tc.Model), "/") == "" {
			warnings = append(warnings, fmt.Sprintf("nlpcloud.tasks.%s.model is not set", kind))
		}
		if strings.Trim(strings.TrimSpace(tc.Endpoint), "/") == "" {
			warnings = append(warnings, fmt.Sprintf("nlpcloud.tasks.%s.endpoint is not set", kind))
		}
	}

	return warnings
}

// isPlaceholderValue checks if a value is likely a placeholder
func isPlaceholderValue(value string) bool {
	lowerValue := strings.ToLower(value)
	placeholders := []string{
		"your_api_key",
		"changeme",
		"placeholder",
		"<api_key>",
	}

	for _, placeholder := range placeholders {
		if strings.Contains(lowerValue, placeholder) {
			return true
		}
	}

	return false
}
