package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateGrafana(&cfg.Grafana)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateIngest(&cfg.Ingest)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateHeartbeat(&cfg.Heartbeat)...)
	errs = append(errs, validateTracing(&cfg.Tracing)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}
	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "server.cors.max_age", Message: "max age must be non-negative"})
	}

	return errs
}

func validateGrafana(cfg *GrafanaConfig) []FieldError {
	var errs []FieldError

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "grafana.endpoint",
			Message: fmt.Sprintf("invalid endpoint URL %q", cfg.Endpoint),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, FieldError{
			Field:   "grafana.endpoint",
			Message: fmt.Sprintf("endpoint scheme must be http or https, got %q", u.Scheme),
		})
	}

	if cfg.ServiceName == "" {
		errs = append(errs, FieldError{Field: "grafana.service_name", Message: "service name is required"})
	}

	return errs
}

func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "export.timeout", Message: "timeout must be positive"})
	}
	if cfg.MaxInFlight <= 0 {
		errs = append(errs, FieldError{Field: "export.max_in_flight", Message: "max in flight must be positive"})
	}
	if cfg.WarnInterval < 0 {
		errs = append(errs, FieldError{Field: "export.warn_interval", Message: "warn interval must be non-negative"})
	}
	if !strictlyIncreasing(cfg.HistogramBounds) {
		errs = append(errs, FieldError{
			Field:   "export.histogram_bounds",
			Message: "histogram bounds must be strictly increasing",
		})
	}

	return errs
}

func validateIngest(cfg *IngestConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxMessageLength <= 0 {
		errs = append(errs, FieldError{
			Field:   "ingest.max_message_length",
			Message: "max message length must be positive",
		})
	}
	for i, p := range cfg.MetricPrefixes {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("ingest.metric_prefixes[%d]", i),
				Message: "metric prefix cannot be empty",
			})
		}
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "sqlite":
	case "redis":
		if cfg.Redis.URL == "" {
			errs = append(errs, FieldError{
				Field:   "ratelimit.redis.url",
				Message: "redis URL is required when backend is redis",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "ratelimit.backend",
			Message: fmt.Sprintf("invalid backend %q (must be memory, sqlite or redis)", cfg.Backend),
		})
	}

	if cfg.LogsPerMinute <= 0 {
		errs = append(errs, FieldError{Field: "ratelimit.logs_per_minute", Message: "limit must be positive"})
	}
	if cfg.MetricsPerMinute <= 0 {
		errs = append(errs, FieldError{Field: "ratelimit.metrics_per_minute", Message: "limit must be positive"})
	}
	if cfg.SweepThreshold <= 0 {
		errs = append(errs, FieldError{Field: "ratelimit.sweep_threshold", Message: "sweep threshold must be positive"})
	}

	if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
		errs = append(errs, FieldError{
			Field:   "ratelimit.sqlite.driver",
			Message: fmt.Sprintf("invalid driver %q (must be sqlite or sqlite3)", cfg.SQLite.Driver),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{Field: "ratelimit.sqlite.path", Message: "path is required"})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Level)] {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn or error)", cfg.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Format)] {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text or console)", cfg.Format),
		})
	}

	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	var errs []FieldError

	if !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{Field: "metrics.path", Message: "path must start with /"})
	}
	if !strictlyIncreasing(cfg.DeliveryDurationBuckets) {
		errs = append(errs, FieldError{
			Field:   "metrics.delivery_duration_buckets",
			Message: "buckets must be strictly increasing",
		})
	}
	if cfg.MaxNameCardinality <= 0 {
		errs = append(errs, FieldError{
			Field:   "metrics.max_name_cardinality",
			Message: "max name cardinality must be positive",
		})
	}

	return errs
}

func validateHeartbeat(cfg *HeartbeatConfig) []FieldError {
	if !cfg.Enabled() {
		return nil
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return []FieldError{{
			Field:   "heartbeat.schedule",
			Message: fmt.Sprintf("invalid schedule %q: %v", cfg.Schedule, err),
		}}
	}
	return nil
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError
	for i, p := range cfg.Propagators {
		if p != "tracecontext" && p != "baggage" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("tracing.propagators[%d]", i),
				Message: fmt.Sprintf("unknown propagator %q (must be tracecontext or baggage)", p),
			})
		}
	}
	return errs
}

func strictlyIncreasing(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}
