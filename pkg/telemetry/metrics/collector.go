package metrics

import (
	"sync"
	"time"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// OtherName replaces forwarded metric names once the cardinality limit is
// reached.
const OtherName = "other"

// Collector holds the shim's own Prometheus metrics. These describe the
// shim itself (admission, delivery, store size) and are scraped locally;
// they are separate from the mobile telemetry forwarded to Grafana.
//
// A disabled collector accepts every call and records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	ingest   *IngestMetrics
	delivery *DeliveryMetrics

	names *CardinalityLimiter
}

// NewCollector creates a collector registered on registry. A nil registry
// gets a fresh one with the Go runtime and process collectors attached.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DeliveryDurationBuckets) == 0 {
		cfg.DeliveryDurationBuckets = config.DefaultDeliveryDurationBuckets
	}
	if cfg.MaxNameCardinality <= 0 {
		cfg.MaxNameCardinality = config.DefaultMaxMetricNameLabelSet
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		ingest:   NewIngestMetrics(cfg, registry),
		delivery: NewDeliveryMetrics(cfg, registry),
		names:    NewCardinalityLimiter(cfg.MaxNameCardinality),
	}
}

// Enabled reports whether the collector records anything.
func (c *Collector) Enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordAccepted counts an event admitted on endpoint ("logs" or "metrics").
func (c *Collector) RecordAccepted(endpoint string) {
	if !c.Enabled() {
		return
	}
	c.ingest.RecordResult(endpoint, ResultAccepted, "")
}

// RecordRejected counts an event refused on endpoint. reason is one of the
// Reason* constants.
func (c *Collector) RecordRejected(endpoint, reason string) {
	if !c.Enabled() {
		return
	}
	c.ingest.RecordResult(endpoint, ResultRejected, reason)
}

// RecordForwarded counts a metric event handed to the exporter, labelled by
// kind and name. Names beyond the cardinality limit are folded into
// OtherName.
func (c *Collector) RecordForwarded(kind, name string) {
	if !c.Enabled() {
		return
	}
	if !c.names.Allow(name) {
		name = OtherName
	}
	c.ingest.RecordForwarded(kind, name)
}

// SetStoreEntries reports the number of live rate-limit windows.
func (c *Collector) SetStoreEntries(n int) {
	if !c.Enabled() {
		return
	}
	c.ingest.SetStoreEntries(n)
}

// RecordDelivery records one OTLP delivery attempt.
func (c *Collector) RecordDelivery(signal, outcome string, duration time.Duration) {
	if !c.Enabled() {
		return
	}
	c.delivery.RecordAttempt(signal, outcome, duration)
}

// RecordDropped records a payload discarded before delivery.
func (c *Collector) RecordDropped(signal, reason string) {
	if !c.Enabled() {
		return
	}
	c.delivery.RecordDropped(signal, reason)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label values tracked.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality
// distinct values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already tracked or fits under the limit.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of tracked values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
