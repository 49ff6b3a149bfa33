package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration for Watchly
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Monitor  MonitorConfig  `yaml:"monitor" json:"monitor"`
	Mailer   MailerConfig   `yaml:"mailer" json:"mailer"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `yaml:"port" json:"port"`
	Host string `yaml:"host" json:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// MonitorConfig contains the monitoring engine configuration
type MonitorConfig struct {
	Enabled             bool `yaml:"enabled" json:"enabled"`
	TickIntervalSeconds int  `yaml:"tick_interval_seconds" json:"tick_interval_seconds"`
	ProbeTimeoutSeconds int  `yaml:"probe_timeout_seconds" json:"probe_timeout_seconds"`
	MaxConcurrentProbes int  `yaml:"max_concurrent_probes" json:"max_concurrent_probes"`
	MaxNotifyAttempts   int  `yaml:"max_notify_attempts" json:"max_notify_attempts"`
	BackoffBaseSeconds  int  `yaml:"backoff_base_seconds" json:"backoff_base_seconds"`
}

// MailerConfig contains SMTP2GO delivery settings
type MailerConfig struct {
	APIKey   string `yaml:"api_key" json:"-"`
	Sender   string `yaml:"sender" json:"sender"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// Defaults for the monitoring engine.
const (
	DefaultTickIntervalSeconds = 30
	DefaultProbeTimeoutSeconds = 5
	DefaultMaxConcurrentProbes = 10
	DefaultMaxNotifyAttempts   = 3
	DefaultBackoffBaseSeconds  = 1
	DefaultSMTP2GOEndpoint     = "https://api.smtp2go.com/v3/email/send"
)

// TickInterval returns the tick interval as a duration
func (m MonitorConfig) TickInterval() time.Duration {
	return time.Duration(m.TickIntervalSeconds) * time.Second
}

// ProbeTimeout returns the per-probe timeout as a duration
func (m MonitorConfig) ProbeTimeout() time.Duration {
	return time.Duration(m.ProbeTimeoutSeconds) * time.Second
}

// BackoffBase returns the initial retry delay as a duration
func (m MonitorConfig) BackoffBase() time.Duration {
	return time.Duration(m.BackoffBaseSeconds) * time.Second
}

// DefaultConfig returns a configuration populated with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4000,
			Host: "0.0.0.0",
		},
		Database: DatabaseConfig{
			Path: "./watchly.db",
		},
		Monitor: MonitorConfig{
			Enabled:             true,
			TickIntervalSeconds: DefaultTickIntervalSeconds,
			ProbeTimeoutSeconds: DefaultProbeTimeoutSeconds,
			MaxConcurrentProbes: DefaultMaxConcurrentProbes,
			MaxNotifyAttempts:   DefaultMaxNotifyAttempts,
			BackoffBaseSeconds:  DefaultBackoffBaseSeconds,
		},
		Mailer: MailerConfig{
			Sender:   "Watchly <alerts@watchly.dev>",
			Endpoint: DefaultSMTP2GOEndpoint,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewConfigurationError(fmt.Sprintf("read config %q", path), err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, NewConfigurationError(fmt.Sprintf("parse config %q", path), err)
		}
	}

	config.applyEnv()

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("WATCHLY_PORT", c.Server.Port)
	c.Server.Host = getEnvOrDefault("WATCHLY_HOST", c.Server.Host)
	c.Database.Path = getEnvOrDefault("WATCHLY_DB_PATH", c.Database.Path)

	c.Monitor.Enabled = getEnvAsBool("WATCHLY_ENABLE_UPTIME", c.Monitor.Enabled)
	c.Monitor.TickIntervalSeconds = getEnvAsInt("WATCHLY_TICK_INTERVAL_SECONDS", c.Monitor.TickIntervalSeconds)
	c.Monitor.ProbeTimeoutSeconds = getEnvAsInt("WATCHLY_PROBE_TIMEOUT_SECONDS", c.Monitor.ProbeTimeoutSeconds)
	c.Monitor.MaxConcurrentProbes = getEnvAsInt("WATCHLY_MAX_CONCURRENT_PROBES", c.Monitor.MaxConcurrentProbes)
	c.Monitor.MaxNotifyAttempts = getEnvAsInt("WATCHLY_MAX_NOTIFY_ATTEMPTS", c.Monitor.MaxNotifyAttempts)
	c.Monitor.BackoffBaseSeconds = getEnvAsInt("WATCHLY_BACKOFF_BASE_SECONDS", c.Monitor.BackoffBaseSeconds)

	c.Mailer.APIKey = getEnvOrDefault("WATCHLY_SMTP2GO_API_KEY", c.Mailer.APIKey)
	c.Mailer.Sender = getEnvOrDefault("WATCHLY_SMTP2GO_SENDER", c.Mailer.Sender)
	c.Mailer.Endpoint = getEnvOrDefault("WATCHLY_SMTP2GO_ENDPOINT", c.Mailer.Endpoint)

	c.Log.Level = getEnvOrDefault("WATCHLY_LOG_LEVEL", c.Log.Level)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewValidationError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Database.Path == "" {
		return NewValidationError("database path is required", nil)
	}

	if err := c.Monitor.Validate(); err != nil {
		return err
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return NewValidationError(fmt.Sprintf("invalid log level %q", c.Log.Level), err)
	}

	// Validate mailer config if monitoring is enabled
	if c.Monitor.Enabled && c.Mailer.APIKey == "" {
		return NewValidationError("SMTP2GO API key is required when uptime monitoring is enabled", nil)
	}

	return nil
}

// Validate checks the engine tunables
func (m MonitorConfig) Validate() error {
	switch {
	case m.TickIntervalSeconds <= 0:
		return NewValidationError(fmt.Sprintf("tick interval must be positive, got %d", m.TickIntervalSeconds), nil)
	case m.ProbeTimeoutSeconds <= 0:
		return NewValidationError(fmt.Sprintf("probe timeout must be positive, got %d", m.ProbeTimeoutSeconds), nil)
	case m.MaxConcurrentProbes <= 0:
		return NewValidationError(fmt.Sprintf("max concurrent probes must be positive, got %d", m.MaxConcurrentProbes), nil)
	case m.MaxNotifyAttempts <= 0:
		return NewValidationError(fmt.Sprintf("max notify attempts must be positive, got %d", m.MaxNotifyAttempts), nil)
	case m.BackoffBaseSeconds < 0:
		return NewValidationError(fmt.Sprintf("backoff base must not be negative, got %d", m.BackoffBaseSeconds), nil)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
