// Package export delivers OTLP payloads to an OTLP/HTTP endpoint.
//
// Delivery is fire-and-forget. SendLogs and SendMetrics hand the payload to
// a detached goroutine and return immediately; the caller never sees a
// delivery error. Failures are logged locally (throttled) and counted in
// the self-metrics, and are never retried. DeliverLogs and DeliverMetrics
// are the synchronous core, used by the detached path and by callers that
// need the outcome, such as the CLI smoke test.
//
// A Client without credentials is disabled: every send logs a throttled
// warning and returns without network I/O.
package export
