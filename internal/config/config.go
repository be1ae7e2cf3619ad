package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
)

// EnvPrefix is the prefix for environment overrides, e.g. CLINICALNLP_NLPCLOUD_API_KEY
const EnvPrefix = "CLINICALNLP"

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Database DatabaseConfig `mapstructure:"database"`
	Audit    AuditConfig    `mapstructure:"audit"`
	NLPCloud NLPCloudConfig `mapstructure:"nlpcloud"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // json or console
}

// APIConfig contains REST API settings
type APIConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig contains the prometheus listener settings
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DatabaseConfig contains the PostgreSQL settings for stored reports.
// An empty URL keeps reports in memory.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Enabled reports whether reports are persisted to PostgreSQL
func (c *DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// AuditConfig controls the access audit trail. Events are persisted only
// when a database is configured.
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NLPCloudConfig contains the upstream provider settings
type NLPCloudConfig struct {
	APIKey     string                `mapstructure:"api_key"`
	BaseURL    string                `mapstructure:"base_url"`
	Timeout    time.Duration         `mapstructure:"timeout"`
	MaxRetries int                   `mapstructure:"max_retries"`
	BaseDelay  time.Duration         `mapstructure:"base_delay"`
	Tasks      map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig routes one task to a provider model
type TaskConfig struct {
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
	Tier     string `mapstructure:"tier"`
}

// defaultTasks mirrors the models NLP Cloud serves for each task
var defaultTasks = map[nlpcloud.TaskKind]TaskConfig{
	nlpcloud.TaskGrammar:   {Tier: "gpu", Model: "chatdolphin", Endpoint: "gs-correction"},
	nlpcloud.TaskEntities:  {Model: "en_core_web_lg", Endpoint: "entities"},
	nlpcloud.TaskSummarize: {Model: "bart-large-cnn", Endpoint: "summarization"},
	nlpcloud.TaskKeywords:  {Tier: "gpu", Model: "llama-3-1-405b", Endpoint: "kw-kp-extraction"},
	nlpcloud.TaskClassify:  {Model: "bart-large-mnli-yahoo-answers", Endpoint: "classification"},
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file; defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key that may be
// overridden from the environment needs a default so viper can bind it.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "ClinicalNLP")
	v.SetDefault("app.version", Version)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{"*"})

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9100)

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_size", 10)

	// Audit defaults
	v.SetDefault("audit.enabled", true)

	// NLP Cloud defaults
	v.SetDefault("nlpcloud.api_key", "")
	v.SetDefault("nlpcloud.base_url", nlpcloud.DefaultBaseURL)
	v.SetDefault("nlpcloud.timeout", nlpcloud.DefaultTimeout)
	v.SetDefault("nlpcloud.max_retries", 3)
	v.SetDefault("nlpcloud.base_delay", nlpcloud.DefaultBaseDelay)

	for kind, tc := range defaultTasks {
		prefix := "nlpcloud.tasks." + string(kind)
		v.SetDefault(prefix+".model", tc.Model)
		v.SetDefault(prefix+".endpoint", tc.Endpoint)
		v.SetDefault(prefix+".tier", tc.Tier)
	}
}

// GetAPIAddr returns the API server address
func (c *APIConfig) GetAPIAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetMetricsAddr returns the metrics listener address
func (c *MetricsConfig) GetMetricsAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Gateway converts the loaded settings into the immutable gateway configuration.
// Task names are matched case-insensitively; unknown names are ignored.
func (c *NLPCloudConfig) Gateway() nlpcloud.Config {
	tasks := make(map[nlpcloud.TaskKind]nlpcloud.TaskConfig, len(c.Tasks))
	for name, tc := range c.Tasks {
		kind := nlpcloud.TaskKind(strings.ToLower(strings.TrimSpace(name)))
		if !kind.Valid() {
			continue
		}
		tasks[kind] = nlpcloud.TaskConfig{
			Model:    tc.Model,
			Endpoint: tc.Endpoint,
			Tier:     tc.Tier,
		}
	}

	return nlpcloud.Config{
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.BaseDelay,
		Tasks:      tasks,
	}
}
