// Package logging provides the local structured logger for beacon.
//
// # Overview
//
// The logging package wraps log/slog to provide:
//   - JSON, text and console output formats
//   - Key-based redaction using the same term list as the telemetry sanitizer
//   - Request fields (request_id, client_key, trace_id, span_id) carried in context
//   - A runtime-adjustable level for config hot reload
//   - Throttle, an interval limiter for repeated warnings
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Redact: true,
//	})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	logger.Info("delivery failed",
//	    "signal", "logs",
//	    "api_key", key, // printed as [REDACTED]
//	)
//
// Local logs are a sink for the shim itself. They are never forwarded to
// the OTLP endpoint.
package logging
