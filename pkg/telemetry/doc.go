// Package telemetry holds the forwarding pipeline and the shim's own
// observability.
//
// # Pipeline
//
// An accepted event flows through these sub-packages in order:
//
//   - event: the LogEvent and MetricEvent models
//   - sanitize: redaction of sensitive attribute keys and truncation
//   - otlp: encoding into OTLP log and metric payloads
//   - export: authenticated OTLP/HTTP delivery to Grafana Cloud
//   - forwarder: the facade tying the steps together
//
// Delivery is fire-and-forget from the caller's point of view. Failures are
// logged (throttled) and counted, never returned to the mobile client.
//
// # Self-observability
//
//   - logging: slog setup with attribute redaction and request-id context
//   - metrics: Prometheus collector served on /metrics
//   - instrument: request and operation wrappers that emit through the forwarder
//   - health: liveness and readiness checks
//   - tracing: W3C trace context extraction for correlated logs
package telemetry
