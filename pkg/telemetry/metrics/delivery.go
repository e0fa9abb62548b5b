package metrics

import (
	"time"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DeliveryMetrics tracks OTLP deliveries to the gateway.
//
// Metrics:
//   - beacon_shim_deliveries_total: attempts by signal and outcome
//   - beacon_shim_delivery_duration_seconds: attempt latency by signal
//   - beacon_shim_dropped_payloads_total: payloads discarded before sending
type DeliveryMetrics struct {
	deliveriesTotal  *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	droppedTotal     *prometheus.CounterVec
}

// NewDeliveryMetrics creates and registers delivery metrics.
func NewDeliveryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DeliveryMetrics {
	dm := &DeliveryMetrics{
		deliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "deliveries_total",
				Help:      "OTLP delivery attempts by signal and outcome",
			},
			[]string{"signal", "outcome"},
		),

		deliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "delivery_duration_seconds",
				Help:      "Duration of OTLP delivery attempts in seconds",
				Buckets:   cfg.DeliveryDurationBuckets,
			},
			[]string{"signal"},
		),

		droppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "dropped_payloads_total",
				Help:      "Payloads discarded before delivery by signal and reason",
			},
			[]string{"signal", "reason"},
		),
	}

	registry.MustRegister(dm.deliveriesTotal, dm.deliveryDuration, dm.droppedTotal)

	return dm
}

// RecordAttempt records one delivery attempt. Attempts that never reached
// the network (disabled, dry run) count but do not observe latency.
func (dm *DeliveryMetrics) RecordAttempt(signal, outcome string, duration time.Duration) {
	dm.deliveriesTotal.WithLabelValues(signal, outcome).Inc()
	if duration > 0 {
		dm.deliveryDuration.WithLabelValues(signal).Observe(duration.Seconds())
	}
}

// RecordDropped records a dropped payload.
func (dm *DeliveryMetrics) RecordDropped(signal, reason string) {
	dm.droppedTotal.WithLabelValues(signal, reason).Inc()
}
