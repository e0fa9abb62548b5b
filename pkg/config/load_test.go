package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "beacon.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9090"
  read_timeout: "30s"

grafana:
  instance_id: "123456"
  api_key: "glc_test"
  environment: "production"
  platform: "vercel"

ratelimit:
  backend: "sqlite"
  logs_per_minute: 50
  sqlite:
    path: "/tmp/rl.db"

logging:
  level: "debug"
  format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout %v, got %v", 30*time.Second, cfg.Server.ReadTimeout)
	}
	if !cfg.Grafana.Configured() {
		t.Error("expected grafana credentials to be configured")
	}
	if cfg.Grafana.Environment != "production" {
		t.Errorf("expected environment %q, got %q", "production", cfg.Grafana.Environment)
	}
	if cfg.RateLimit.Backend != "sqlite" || cfg.RateLimit.LogsPerMinute != 50 {
		t.Errorf("unexpected rate limit config: %+v", cfg.RateLimit)
	}
	// Untouched fields keep defaults.
	if cfg.RateLimit.MetricsPerMinute != DefaultMetricsPerMinute {
		t.Errorf("expected metrics limit %d, got %d", DefaultMetricsPerMinute, cfg.RateLimit.MetricsPerMinute)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Logging.Level)
	}
}

func TestLoadConfig_BoolDefaultsSurviveOmission(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: warn\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Logging.Redact {
		t.Error("expected logging.redact to default to true")
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics.enabled to default to true")
	}
}

func TestLoadConfig_ExplicitFalseKept(t *testing.T) {
	path := writeConfig(t, "logging:\n  redact: false\nmetrics:\n  enabled: false\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Logging.Redact {
		t.Error("expected logging.redact false")
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics.enabled false")
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}
	want := NewDefault()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if cfg.Grafana.Configured() {
		t.Error("expected delivery to be unconfigured by default")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "server: [unclosed"},
		{"invalid backend", "ratelimit:\n  backend: etcd\n"},
		{"redis without url", "ratelimit:\n  backend: redis\n"},
		{"bad schedule", "heartbeat:\n  schedule: \"not a cron\"\n"},
		{"bad endpoint", "grafana:\n  endpoint: \"ftp://example.com\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := LoadOptional(missing, false)
	if err != nil {
		t.Fatalf("expected defaults for optional missing file, got %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}

	if _, err := LoadOptional(missing, true); err == nil {
		t.Error("expected error for required missing file")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
grafana:
  service_name: "from-file"
ratelimit:
  logs_per_minute: 10
`)

	t.Setenv("GRAFANA_INSTANCE_ID", "987")
	t.Setenv("GRAFANA_API_KEY", "glc_env")
	t.Setenv("GRAFANA_OTLP_ENDPOINT", "https://otlp.example.com/otlp")
	t.Setenv("SERVICE_NAME", "uber-fight-api")
	t.Setenv("DEPLOY_ENV", "staging")
	t.Setenv("BEACON_RATELIMIT_LOGS_PER_MINUTE", "25")
	t.Setenv("BEACON_EXPORT_GZIP", "true")
	t.Setenv("BEACON_SANITIZER_EXTRA_KEYS", "pin, otp ,")
	t.Setenv("BEACON_SERVER_READ_TIMEOUT", "not-a-duration")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Grafana.InstanceID != "987" || cfg.Grafana.APIKey != "glc_env" {
		t.Errorf("expected credentials from env, got %q/%q", cfg.Grafana.InstanceID, cfg.Grafana.APIKey)
	}
	if cfg.Grafana.Endpoint != "https://otlp.example.com/otlp" {
		t.Errorf("unexpected endpoint %q", cfg.Grafana.Endpoint)
	}
	if cfg.Grafana.ServiceName != "uber-fight-api" {
		t.Errorf("expected env to win over file, got %q", cfg.Grafana.ServiceName)
	}
	if cfg.Grafana.Environment != "staging" {
		t.Errorf("expected environment %q, got %q", "staging", cfg.Grafana.Environment)
	}
	if cfg.RateLimit.LogsPerMinute != 25 {
		t.Errorf("expected logs limit 25, got %d", cfg.RateLimit.LogsPerMinute)
	}
	if !cfg.Export.Gzip {
		t.Error("expected gzip enabled")
	}
	if !reflect.DeepEqual(cfg.Sanitizer.ExtraKeys, []string{"pin", "otp"}) {
		t.Errorf("unexpected extra keys %v", cfg.Sanitizer.ExtraKeys)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected unparsable duration to be ignored, got %v", cfg.Server.ReadTimeout)
	}
}

func TestLoadConfigWithEnvOverrides_BeaconWinsOverDeployVars(t *testing.T) {
	t.Setenv("SERVICE_NAME", "generic")
	t.Setenv("BEACON_GRAFANA_SERVICE_NAME", "specific")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Grafana.ServiceName != "specific" {
		t.Errorf("expected BEACON_ override to win, got %q", cfg.Grafana.ServiceName)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	t.Setenv("BEACON_RATELIMIT_BACKEND", "zookeeper")

	_, err := LoadConfigWithEnvOverrides("")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Errors[0].Field != "ratelimit.backend" {
		t.Errorf("expected ratelimit.backend error, got %+v", verr.Errors)
	}
}
