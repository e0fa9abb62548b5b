package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
	DefaultMaxBodyBytes    = int64(64 << 10)
	DefaultCORSMaxAge      = 3600

	// Grafana defaults
	DefaultGrafanaEndpoint = "https://otlp-gateway-prod-us-central-0.grafana.net/otlp"
	DefaultServiceName     = "uber-fight"
	DefaultServiceVersion  = "1.0.0"
	DefaultEnvironment     = "development"

	// Export defaults
	DefaultExportTimeout      = 10 * time.Second
	DefaultExportMaxInFlight  = 64
	DefaultExportWarnInterval = time.Minute

	// Ingest defaults
	DefaultMaxMessageLength = 2000
	DefaultMetricSource     = "mobile-android"

	// Rate limit defaults
	DefaultRateLimitBackend   = "memory"
	DefaultLogsPerMinute      = 100
	DefaultMetricsPerMinute   = 200
	DefaultSweepThreshold     = 10000
	DefaultSQLitePath         = "data/ratelimit.db"
	DefaultSQLiteDriver       = "sqlite"
	DefaultSQLiteBusyTimeout  = 5 * time.Second
	DefaultRedisPrefix        = "beacon:ratelimit:"
	DefaultPlatformHeaderName = "X-Vercel-Forwarded-For"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Metrics defaults
	DefaultMetricsPath           = "/metrics"
	DefaultMetricsNamespace      = "beacon"
	DefaultMetricsSubsystem      = "shim"
	DefaultMaxMetricNameLabelSet = 1000

	// Heartbeat defaults
	DefaultHeartbeatSchedule = "@every 1m"
	HeartbeatOff             = "off"
)

// DefaultMetricPrefixes are the metric namespaces accepted from mobile clients.
var DefaultMetricPrefixes = []string{
	"mobile.app.",
	"mobile.screen.",
	"mobile.network.",
	"mobile.fight.",
	"mobile.auth.",
	"mobile.user.",
}

// DefaultHistogramBounds are the default histogram bucket bounds (ms).
var DefaultHistogramBounds = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// DefaultDeliveryDurationBuckets are the delivery latency buckets (s).
var DefaultDeliveryDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// NewDefault returns a Config with every default applied, including the
// boolean defaults that ApplyDefaults cannot distinguish from an explicit
// false. LoadConfig decodes YAML on top of it.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = true
	cfg.Server.CORS.AllowedOrigins = []string{"*"}
	cfg.Logging.Redact = true
	cfg.Metrics.Enabled = true
	cfg.Tracing.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyGrafanaDefaults(&cfg.Grafana)
	applyExportDefaults(&cfg.Export)
	applyIngestDefaults(&cfg.Ingest)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyHeartbeatDefaults(&cfg.Heartbeat)
	applyTracingDefaults(&cfg.Tracing)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxHeaderBytes == 0 {
		cfg.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.CORS.MaxAge == 0 {
		cfg.CORS.MaxAge = DefaultCORSMaxAge
	}
}

func applyGrafanaDefaults(cfg *GrafanaConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGrafanaEndpoint
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = DefaultServiceVersion
	}
	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}
}

func applyExportDefaults(cfg *ExportConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultExportTimeout
	}
	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = DefaultExportMaxInFlight
	}
	if cfg.WarnInterval == 0 {
		cfg.WarnInterval = DefaultExportWarnInterval
	}
	if len(cfg.HistogramBounds) == 0 {
		cfg.HistogramBounds = append([]float64(nil), DefaultHistogramBounds...)
	}
}

func applyIngestDefaults(cfg *IngestConfig) {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = DefaultMaxMessageLength
	}
	if len(cfg.MetricPrefixes) == 0 {
		cfg.MetricPrefixes = append([]string(nil), DefaultMetricPrefixes...)
	}
	if cfg.MetricSource == "" {
		cfg.MetricSource = DefaultMetricSource
	}
}

func applyRateLimitDefaults(cfg *RateLimitConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultRateLimitBackend
	}
	if cfg.LogsPerMinute == 0 {
		cfg.LogsPerMinute = DefaultLogsPerMinute
	}
	if cfg.MetricsPerMinute == 0 {
		cfg.MetricsPerMinute = DefaultMetricsPerMinute
	}
	if cfg.SweepThreshold == 0 {
		cfg.SweepThreshold = DefaultSweepThreshold
	}
	if cfg.PlatformHeaders == nil {
		cfg.PlatformHeaders = []string{DefaultPlatformHeaderName}
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.SQLite.Driver == "" {
		cfg.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = DefaultRedisPrefix
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLogFormat
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultMetricsPath
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.DeliveryDurationBuckets) == 0 {
		cfg.DeliveryDurationBuckets = append([]float64(nil), DefaultDeliveryDurationBuckets...)
	}
	if cfg.MaxNameCardinality == 0 {
		cfg.MaxNameCardinality = DefaultMaxMetricNameLabelSet
	}
}

func applyHeartbeatDefaults(cfg *HeartbeatConfig) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultHeartbeatSchedule
	}
}

func applyTracingDefaults(cfg *TracingConfig) {
	if len(cfg.Propagators) == 0 {
		cfg.Propagators = []string{"tracecontext", "baggage"}
	}
}
