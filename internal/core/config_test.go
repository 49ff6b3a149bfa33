package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "watchly.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Monitor.TickIntervalSeconds != 30 {
		t.Errorf("Expected tick interval 30, got %d", config.Monitor.TickIntervalSeconds)
	}
	if config.Monitor.ProbeTimeoutSeconds != 5 {
		t.Errorf("Expected probe timeout 5, got %d", config.Monitor.ProbeTimeoutSeconds)
	}
	if config.Monitor.MaxConcurrentProbes != 10 {
		t.Errorf("Expected max concurrent probes 10, got %d", config.Monitor.MaxConcurrentProbes)
	}
	if config.Monitor.MaxNotifyAttempts != 3 {
		t.Errorf("Expected max notify attempts 3, got %d", config.Monitor.MaxNotifyAttempts)
	}
	if config.Monitor.BackoffBaseSeconds != 1 {
		t.Errorf("Expected backoff base 1, got %d", config.Monitor.BackoffBaseSeconds)
	}
	if config.Mailer.Endpoint != DefaultSMTP2GOEndpoint {
		t.Errorf("Expected default SMTP2GO endpoint, got %q", config.Mailer.Endpoint)
	}
}

func TestLoadConfigLayers(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8080
monitor:
  tick_interval_seconds: 60
  max_concurrent_probes: 4
mailer:
  api_key: from-file
`)
	t.Setenv("WATCHLY_MAX_CONCURRENT_PROBES", "6")
	t.Setenv("WATCHLY_LOG_LEVEL", "debug")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Port != 8080 {
		t.Errorf("Expected port from file, got %d", config.Server.Port)
	}
	if config.Monitor.TickIntervalSeconds != 60 {
		t.Errorf("Expected tick interval from file, got %d", config.Monitor.TickIntervalSeconds)
	}
	if config.Monitor.MaxConcurrentProbes != 6 {
		t.Errorf("Expected env to override file, got %d", config.Monitor.MaxConcurrentProbes)
	}
	if config.Monitor.ProbeTimeoutSeconds != DefaultProbeTimeoutSeconds {
		t.Errorf("Expected default probe timeout, got %d", config.Monitor.ProbeTimeoutSeconds)
	}
	if config.Mailer.APIKey != "from-file" {
		t.Errorf("Expected api key from file, got %q", config.Mailer.APIKey)
	}
	if config.Log.Level != "debug" {
		t.Errorf("Expected log level from env, got %q", config.Log.Level)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero interval", "monitor: {tick_interval_seconds: 0}\nmailer: {api_key: k}"},
		{"negative backoff", "monitor: {backoff_base_seconds: -1}\nmailer: {api_key: k}"},
		{"zero attempts", "monitor: {max_notify_attempts: 0}\nmailer: {api_key: k}"},
		{"bad port", "server: {port: 70000}\nmailer: {api_key: k}"},
		{"bad log level", "log: {level: loud}\nmailer: {api_key: k}"},
		{"missing api key", "monitor: {enabled: true}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WATCHLY_SMTP2GO_API_KEY", "")
			if _, err := LoadConfig(writeConfigFile(t, tt.yaml)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadConfigMonitorDisabledNeedsNoAPIKey(t *testing.T) {
	t.Setenv("WATCHLY_SMTP2GO_API_KEY", "")
	config, err := LoadConfig(writeConfigFile(t, "monitor: {enabled: false}"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Monitor.Enabled {
		t.Error("Expected monitoring to be disabled")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !HasCode(err, ErrCodeConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}
