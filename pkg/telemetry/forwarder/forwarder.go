package forwarder

import (
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/pdata/pmetric"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/otlp"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/sanitize"
)

// Sink delivers encoded payloads. export.Client implements it; both
// methods detach and return immediately.
type Sink interface {
	SendLogs(ctx context.Context, logs plog.Logs)
	SendMetrics(ctx context.Context, metrics pmetric.Metrics)
}

// Observer is told about every metric event handed to the sink.
// metrics.Collector implements it.
type Observer interface {
	RecordForwarded(kind, name string)
}

// Forwarder is the single entry point for emitting telemetry. Every event
// is sanitized, encoded into one OTLP payload and handed to the sink. None
// of its methods block on delivery or report delivery errors.
type Forwarder struct {
	encoder   *otlp.Encoder
	sink      Sink
	sanitizer atomic.Pointer[sanitize.Sanitizer]
	logger    *slog.Logger
	observer  Observer
	mirror    bool
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithSanitizer replaces the default sanitizer.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(f *Forwarder) { f.sanitizer.Store(s) }
}

// WithLogger sets the local logger used when mirroring.
func WithLogger(l *slog.Logger) Option {
	return func(f *Forwarder) { f.logger = l }
}

// WithObserver sets the forwarded-metric observer.
func WithObserver(o Observer) Option {
	return func(f *Forwarder) { f.observer = o }
}

// WithLocalMirror also writes every forwarded event to the local logger at
// debug level, after sanitization.
func WithLocalMirror(enabled bool) Option {
	return func(f *Forwarder) { f.mirror = enabled }
}

// New creates a Forwarder.
func New(encoder *otlp.Encoder, sink Sink, opts ...Option) *Forwarder {
	f := &Forwarder{
		encoder: encoder,
		sink:    sink,
		logger:  slog.Default(),
	}
	f.sanitizer.Store(sanitize.New())
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetSanitizer swaps the sanitizer, e.g. after the sensitive key list is
// reloaded. Events already encoded are unaffected.
func (f *Forwarder) SetSanitizer(s *sanitize.Sanitizer) {
	if s != nil {
		f.sanitizer.Store(s)
	}
}

// Encoder returns the OTLP encoder.
func (f *Forwarder) Encoder() *otlp.Encoder {
	return f.encoder
}

// Emit forwards a prepared log event.
func (f *Forwarder) Emit(ctx context.Context, ev event.LogEvent) {
	ev = f.sanitizer.Load().Log(ev)
	f.mirrorLog(ctx, ev)
	f.sink.SendLogs(ctx, f.encoder.EncodeLog(ctx, ev))
}

// Log forwards message at level.
func (f *Forwarder) Log(ctx context.Context, level event.Level, message string, attrs event.Attributes) {
	f.Emit(ctx, event.NewLog(level, message, attrs))
}

// Debug forwards a debug message.
func (f *Forwarder) Debug(ctx context.Context, message string, attrs event.Attributes) {
	f.Log(ctx, event.LevelDebug, message, attrs)
}

// Info forwards an info message.
func (f *Forwarder) Info(ctx context.Context, message string, attrs event.Attributes) {
	f.Log(ctx, event.LevelInfo, message, attrs)
}

// Warn forwards a warning.
func (f *Forwarder) Warn(ctx context.Context, message string, attrs event.Attributes) {
	f.Log(ctx, event.LevelWarn, message, attrs)
}

// Error forwards an error message.
func (f *Forwarder) Error(ctx context.Context, message string, attrs event.Attributes) {
	f.Log(ctx, event.LevelError, message, attrs)
}

// LogBatch forwards events as one payload: one resource, one scope, one
// record per event in order. An empty batch sends nothing.
func (f *Forwarder) LogBatch(ctx context.Context, events []event.LogEvent) {
	if len(events) == 0 {
		return
	}
	san := f.sanitizer.Load()
	clean := make([]event.LogEvent, len(events))
	for i, ev := range events {
		clean[i] = san.Log(ev)
		f.mirrorLog(ctx, clean[i])
	}
	f.sink.SendLogs(ctx, f.encoder.EncodeLogs(ctx, clean))
}

// Metric forwards a prepared metric event.
func (f *Forwarder) Metric(ctx context.Context, ev event.MetricEvent) {
	ev = f.sanitizer.Load().Metric(ev)
	if f.mirror {
		f.logger.DebugContext(ctx, "forwarding metric",
			"name", ev.Name, "kind", string(ev.Kind), "value", ev.Value)
	}
	if f.observer != nil {
		f.observer.RecordForwarded(string(ev.Kind), ev.Name)
	}
	f.sink.SendMetrics(ctx, f.encoder.EncodeMetric(ev))
}

// Counter forwards a counter sample. The value is rounded to an integer.
func (f *Forwarder) Counter(ctx context.Context, name string, value float64, attrs event.Attributes) {
	f.Metric(ctx, event.NewMetric(event.KindCounter, name, value, attrs))
}

// Gauge forwards a gauge sample.
func (f *Forwarder) Gauge(ctx context.Context, name string, value float64, attrs event.Attributes) {
	f.Metric(ctx, event.NewMetric(event.KindGauge, name, value, attrs))
}

// Histogram forwards a single histogram observation.
func (f *Forwarder) Histogram(ctx context.Context, name string, value float64, attrs event.Attributes) {
	f.Metric(ctx, event.NewMetric(event.KindHistogram, name, value, attrs))
}

func (f *Forwarder) mirrorLog(ctx context.Context, ev event.LogEvent) {
	if !f.mirror {
		return
	}
	f.logger.DebugContext(ctx, "forwarding log",
		"level", string(ev.Level), "message", ev.Message, "attributes", map[string]any(ev.Attributes))
}
