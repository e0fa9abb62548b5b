package config

import "time"

// Config is the root configuration structure for beacon.
type Config struct {
	// Server contains ingestion HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Grafana contains the OTLP gateway credentials and the service
	// metadata stamped on every payload.
	Grafana GrafanaConfig `yaml:"grafana"`

	// Export contains delivery client tuning.
	Export ExportConfig `yaml:"export"`

	// Ingest contains validation rules for the ingestion endpoints.
	Ingest IngestConfig `yaml:"ingest"`

	// RateLimit contains per-client admission limits and the store backend.
	RateLimit RateLimitConfig `yaml:"ratelimit"`

	// Sanitizer contains attribute redaction settings.
	Sanitizer SanitizerConfig `yaml:"sanitizer"`

	// Logging contains local log output settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus self-metrics settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// Heartbeat contains the scheduled heartbeat job settings.
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`

	// Tracing contains trace-context propagation settings.
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig contains configuration for the ingestion HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown, including the wait for
	// detached deliveries.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits request body size on the ingestion endpoints.
	// Default: 64KB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration for
	// browser callers.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains Cross-Origin Resource Sharing configuration.
type CORSConfig struct {
	// Enabled turns CORS headers on.
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxAge is the preflight cache duration in seconds.
	MaxAge int `yaml:"max_age"`
}

// GrafanaConfig holds the OTLP gateway credentials and resource metadata.
// Missing InstanceID or APIKey disables delivery without failing startup.
type GrafanaConfig struct {
	// InstanceID is the Grafana Cloud stack instance ID (basic auth user).
	InstanceID string `yaml:"instance_id"`

	// APIKey is the Grafana Cloud access token (basic auth password).
	APIKey string `yaml:"api_key"`

	// Endpoint is the OTLP gateway base URL.
	Endpoint string `yaml:"endpoint"`

	// ServiceName is reported as service.name.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is reported as service.version.
	ServiceVersion string `yaml:"service_version"`

	// Environment is reported as deployment.environment.
	Environment string `yaml:"environment"`

	// Platform is reported as cloud.platform.
	Platform string `yaml:"platform"`

	// Region is reported as cloud.region.
	Region string `yaml:"region"`

	// ServiceInstanceID is reported as service.instance.id. A random ID is
	// generated at startup when empty.
	ServiceInstanceID string `yaml:"service_instance_id"`
}

// Configured reports whether delivery credentials are present.
func (g GrafanaConfig) Configured() bool {
	return g.InstanceID != "" && g.APIKey != ""
}

// ExportConfig contains delivery client tuning.
type ExportConfig struct {
	// Timeout bounds each OTLP request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Gzip compresses request bodies.
	Gzip bool `yaml:"gzip"`

	// MaxInFlight bounds concurrent background deliveries.
	// Default: 64
	MaxInFlight int `yaml:"max_in_flight"`

	// WarnInterval is the minimum interval between repeated delivery
	// warnings in the local log.
	// Default: 1m
	WarnInterval time.Duration `yaml:"warn_interval"`

	// HistogramBounds are the default explicit bucket bounds.
	HistogramBounds []float64 `yaml:"histogram_bounds"`
}

// IngestConfig contains validation rules for the ingestion endpoints.
type IngestConfig struct {
	// MaxMessageLength is the maximum log message length in characters.
	// Default: 2000
	MaxMessageLength int `yaml:"max_message_length"`

	// MetricPrefixes are the accepted metric name prefixes.
	MetricPrefixes []string `yaml:"metric_prefixes"`

	// MetricSource is added to every ingested metric as the source attribute.
	// Default: "mobile-android"
	MetricSource string `yaml:"metric_source"`
}

// RateLimitConfig contains per-client admission limits.
type RateLimitConfig struct {
	// Backend is "memory", "sqlite" or "redis".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// LogsPerMinute is the /api/logs limit per client.
	// Default: 100
	LogsPerMinute int `yaml:"logs_per_minute"`

	// MetricsPerMinute is the /api/metrics limit per client.
	// Default: 200
	MetricsPerMinute int `yaml:"metrics_per_minute"`

	// SweepThreshold is the memory or sqlite store size above which
	// expired entries are swept.
	// Default: 10000
	SweepThreshold int `yaml:"sweep_threshold"`

	// PlatformHeaders are hosting-specific forwarded-for headers consulted
	// after X-Forwarded-For and X-Real-IP.
	PlatformHeaders []string `yaml:"platform_headers"`

	// UseRemoteAddr falls back to the socket peer before "unknown".
	UseRemoteAddr bool `yaml:"use_remote_addr"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`
}

// SQLiteConfig configures the sqlite rate-limit store.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/ratelimit.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long to wait for locks.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RedisConfig configures the redis rate-limit store.
type RedisConfig struct {
	// URL is a redis:// URL.
	URL string `yaml:"url"`

	// Prefix namespaces keys.
	// Default: "beacon:ratelimit:"
	Prefix string `yaml:"prefix"`
}

// SanitizerConfig contains attribute redaction settings.
type SanitizerConfig struct {
	// ExtraKeys are sensitive key terms added to the built-in list.
	// Reloadable.
	ExtraKeys []string `yaml:"extra_keys"`
}

// LoggingConfig contains local log output settings.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error". Reloadable.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json", "text" or "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// Redact masks sensitive attributes in local logs.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains Prometheus self-metrics settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint and records self-metrics.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes metric names.
	// Default: "beacon"
	Namespace string `yaml:"namespace"`

	// Subsystem prefixes metric names after the namespace.
	// Default: "shim"
	Subsystem string `yaml:"subsystem"`

	// DeliveryDurationBuckets are the delivery latency buckets in seconds.
	DeliveryDurationBuckets []float64 `yaml:"delivery_duration_buckets"`

	// MaxNameCardinality caps distinct forwarded metric names tracked in
	// labels; further names are reported as "other".
	// Default: 1000
	MaxNameCardinality int `yaml:"max_name_cardinality"`
}

// HeartbeatConfig contains the scheduled heartbeat job settings.
type HeartbeatConfig struct {
	// Schedule is a cron expression or descriptor. "off" disables the job.
	// Default: "@every 1m"
	Schedule string `yaml:"schedule"`
}

// Enabled reports whether the heartbeat job should run.
func (h HeartbeatConfig) Enabled() bool {
	return h.Schedule != "" && h.Schedule != HeartbeatOff
}

// TracingConfig contains trace-context propagation settings.
type TracingConfig struct {
	// Enabled extracts W3C trace context from ingestion requests and
	// attaches the IDs to forwarded log records.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Propagators lists the propagators to use ("tracecontext", "baggage").
	Propagators []string `yaml:"propagators"`
}
