// Package server provides the HTTP server of the telemetry shim.
//
// The server mounts:
//
//	POST /api/logs     ingestion of one log event
//	POST /api/metrics  ingestion of one metric event
//	GET  /health       liveness
//	GET  /ready        readiness
//	GET  /version      build information
//	GET  /metrics      Prometheus self-metrics (path configurable)
//
// behind the middleware chain described in package middleware.
//
// # Usage
//
//	srv, err := server.NewServer(&cfg.Server, server.Dependencies{
//	    Ingest:         ingestHandler,
//	    Health:         checker,
//	    MetricsHandler: collector.Handler(),
//	    MetricsPath:    cfg.Metrics.Path,
//	    Tracing:        extractor,
//	    APIMetrics:     fwd,
//	    Flusher:        exporter,
//	    Logger:         logger.Slog(),
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// # Graceful Shutdown
//
// Start returns after SIGINT, SIGTERM, context cancellation or Stop. The
// listener closes first, in-flight requests complete, then deliveries
// already handed to the exporter are given the rest of ShutdownTimeout to
// finish.
package server
