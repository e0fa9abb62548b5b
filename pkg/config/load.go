package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of NewDefault, so omitted fields keep their
// defaults. An empty path yields the defaults alone. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefault()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Two families of variables are honored:
//
//   - the deployment variables GRAFANA_INSTANCE_ID, GRAFANA_API_KEY,
//     GRAFANA_OTLP_ENDPOINT, SERVICE_NAME, SERVICE_VERSION, DEPLOY_ENV,
//     DEPLOY_PLATFORM and DEPLOY_REGION;
//   - BEACON_SECTION_FIELD overrides (e.g. BEACON_SERVER_LISTEN_ADDRESS),
//     which win over the deployment variables.
//
// The loading sequence is:
// 1. Load YAML from file over the defaults
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadOptional behaves like LoadConfigWithEnvOverrides, except that a
// missing file is not an error when required is false. Env-only deployments
// run without any file.
func LoadOptional(path string, required bool) (*Config, error) {
	if !required && path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return LoadConfigWithEnvOverrides(path)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Deployment variables
	envString("GRAFANA_INSTANCE_ID", &cfg.Grafana.InstanceID)
	envString("GRAFANA_API_KEY", &cfg.Grafana.APIKey)
	envString("GRAFANA_OTLP_ENDPOINT", &cfg.Grafana.Endpoint)
	envString("SERVICE_NAME", &cfg.Grafana.ServiceName)
	envString("SERVICE_VERSION", &cfg.Grafana.ServiceVersion)
	envString("DEPLOY_ENV", &cfg.Grafana.Environment)
	envString("DEPLOY_PLATFORM", &cfg.Grafana.Platform)
	envString("DEPLOY_REGION", &cfg.Grafana.Region)

	// Server overrides
	envString("BEACON_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("BEACON_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("BEACON_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("BEACON_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("BEACON_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envInt("BEACON_SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)
	if val := os.Getenv("BEACON_SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}
	envBool("BEACON_SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	envList("BEACON_SERVER_CORS_ALLOWED_ORIGINS", &cfg.Server.CORS.AllowedOrigins)

	// Grafana overrides
	envString("BEACON_GRAFANA_INSTANCE_ID", &cfg.Grafana.InstanceID)
	envString("BEACON_GRAFANA_API_KEY", &cfg.Grafana.APIKey)
	envString("BEACON_GRAFANA_ENDPOINT", &cfg.Grafana.Endpoint)
	envString("BEACON_GRAFANA_SERVICE_NAME", &cfg.Grafana.ServiceName)
	envString("BEACON_GRAFANA_SERVICE_VERSION", &cfg.Grafana.ServiceVersion)
	envString("BEACON_GRAFANA_ENVIRONMENT", &cfg.Grafana.Environment)
	envString("BEACON_GRAFANA_SERVICE_INSTANCE_ID", &cfg.Grafana.ServiceInstanceID)

	// Export overrides
	envDuration("BEACON_EXPORT_TIMEOUT", &cfg.Export.Timeout)
	envBool("BEACON_EXPORT_GZIP", &cfg.Export.Gzip)
	envInt("BEACON_EXPORT_MAX_IN_FLIGHT", &cfg.Export.MaxInFlight)
	envDuration("BEACON_EXPORT_WARN_INTERVAL", &cfg.Export.WarnInterval)

	// Ingest overrides
	envInt("BEACON_INGEST_MAX_MESSAGE_LENGTH", &cfg.Ingest.MaxMessageLength)
	envList("BEACON_INGEST_METRIC_PREFIXES", &cfg.Ingest.MetricPrefixes)
	envString("BEACON_INGEST_METRIC_SOURCE", &cfg.Ingest.MetricSource)

	// Rate limit overrides
	envString("BEACON_RATELIMIT_BACKEND", &cfg.RateLimit.Backend)
	envInt("BEACON_RATELIMIT_LOGS_PER_MINUTE", &cfg.RateLimit.LogsPerMinute)
	envInt("BEACON_RATELIMIT_METRICS_PER_MINUTE", &cfg.RateLimit.MetricsPerMinute)
	envInt("BEACON_RATELIMIT_SWEEP_THRESHOLD", &cfg.RateLimit.SweepThreshold)
	envList("BEACON_RATELIMIT_PLATFORM_HEADERS", &cfg.RateLimit.PlatformHeaders)
	envBool("BEACON_RATELIMIT_USE_REMOTE_ADDR", &cfg.RateLimit.UseRemoteAddr)
	envString("BEACON_RATELIMIT_SQLITE_PATH", &cfg.RateLimit.SQLite.Path)
	envString("BEACON_RATELIMIT_SQLITE_DRIVER", &cfg.RateLimit.SQLite.Driver)
	envString("BEACON_RATELIMIT_REDIS_URL", &cfg.RateLimit.Redis.URL)
	envString("BEACON_RATELIMIT_REDIS_PREFIX", &cfg.RateLimit.Redis.Prefix)

	// Sanitizer overrides
	envList("BEACON_SANITIZER_EXTRA_KEYS", &cfg.Sanitizer.ExtraKeys)

	// Logging overrides
	envString("BEACON_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("BEACON_LOGGING_FORMAT", &cfg.Logging.Format)
	envBool("BEACON_LOGGING_ADD_SOURCE", &cfg.Logging.AddSource)
	envBool("BEACON_LOGGING_REDACT", &cfg.Logging.Redact)

	// Metrics overrides
	envBool("BEACON_METRICS_ENABLED", &cfg.Metrics.Enabled)
	envString("BEACON_METRICS_PATH", &cfg.Metrics.Path)

	// Heartbeat overrides
	envString("BEACON_HEARTBEAT_SCHEDULE", &cfg.Heartbeat.Schedule)

	// Tracing overrides
	envBool("BEACON_TRACING_ENABLED", &cfg.Tracing.Enabled)
}

func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

// envList parses a comma-separated list, dropping empty items.
func envList(name string, dst *[]string) {
	val := os.Getenv(name)
	if val == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
