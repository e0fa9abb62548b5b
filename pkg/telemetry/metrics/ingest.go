package metrics

import (
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Rejection reasons.
const (
	ReasonValidation  = "validation"
	ReasonRateLimited = "rate_limited"
	ReasonInternal    = "internal"
)

// IngestMetrics tracks admission on the ingestion endpoints.
//
// Metrics:
//   - beacon_shim_ingest_events_total: events by endpoint, result, reason
//   - beacon_shim_forwarded_metrics_total: metric events handed to the exporter
//   - beacon_shim_ratelimit_store_entries: live rate-limit windows
type IngestMetrics struct {
	eventsTotal    *prometheus.CounterVec
	forwardedTotal *prometheus.CounterVec
	storeEntries   prometheus.Gauge
}

// NewIngestMetrics creates and registers ingestion metrics.
func NewIngestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *IngestMetrics {
	im := &IngestMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ingest_events_total",
				Help:      "Events received on the ingestion endpoints",
			},
			[]string{"endpoint", "result", "reason"},
		),

		forwardedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "forwarded_metrics_total",
				Help:      "Metric events handed to the exporter by kind and name",
			},
			[]string{"kind", "name"},
		),

		storeEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_store_entries",
				Help:      "Rate-limit windows currently held by the store",
			},
		),
	}

	registry.MustRegister(im.eventsTotal, im.forwardedTotal, im.storeEntries)

	return im
}

// RecordResult counts one ingestion outcome.
func (im *IngestMetrics) RecordResult(endpoint, result, reason string) {
	im.eventsTotal.WithLabelValues(endpoint, result, reason).Inc()
}

// RecordForwarded counts one forwarded metric event.
func (im *IngestMetrics) RecordForwarded(kind, name string) {
	im.forwardedTotal.WithLabelValues(kind, name).Inc()
}

// SetStoreEntries sets the store size gauge.
func (im *IngestMetrics) SetStoreEntries(n int) {
	im.storeEntries.Set(float64(n))
}
