// Package metrics exposes beacon's own Prometheus metrics.
//
// These are self-metrics about the shim (events admitted or rejected,
// deliveries by outcome, dropped payloads, rate-limit store size). The
// mobile telemetry itself is forwarded to Grafana as OTLP and never lands
// in this registry.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//	exporter, _ := export.New(exportCfg, export.WithRecorder(collector))
//	mux.Handle(cfg.Metrics.Path, collector.Handler())
//
// Forwarded metric names are user-controlled, so RecordForwarded caps their
// cardinality and reports the overflow as "other".
package metrics
