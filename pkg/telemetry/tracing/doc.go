// Package tracing correlates ingested events with the caller's trace.
//
// When a client sends a W3C traceparent header, Extractor.Middleware places
// the remote span context on the request context. Log records forwarded
// while handling that request then carry the same trace and span IDs, so
// Grafana can jump from a mobile log line to the trace that produced it.
//
//	ext, err := tracing.New(&cfg.Tracing)
//	handler = ext.Middleware(handler)
package tracing
