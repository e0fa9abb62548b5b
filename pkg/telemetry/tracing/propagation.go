package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Propagator names accepted in TracingConfig.Propagators.
const (
	PropagatorTraceContext = "tracecontext"
	PropagatorBaggage      = "baggage"
)

// Response headers echoing the extracted context, useful when correlating a
// mobile request with the forwarded log record in Grafana.
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// Extractor pulls W3C trace context off incoming requests.
//
// Beacon never starts spans of its own. The remote span context found in
// traceparent is placed on the request context, where the OTLP encoder
// picks up its trace and span IDs for the log record.
type Extractor struct {
	propagator propagation.TextMapPropagator
	enabled    bool
}

// New builds an Extractor from cfg and installs its propagator as the
// global otel text map propagator.
func New(cfg *config.TracingConfig) (*Extractor, error) {
	p, err := NewPropagator(cfg.Propagators)
	if err != nil {
		return nil, err
	}
	otel.SetTextMapPropagator(p)
	return &Extractor{propagator: p, enabled: cfg.Enabled}, nil
}

// NewPropagator returns a composite propagator for names. An empty list
// yields trace context plus baggage.
func NewPropagator(names []string) (propagation.TextMapPropagator, error) {
	if len(names) == 0 {
		names = []string{PropagatorTraceContext, PropagatorBaggage}
	}

	props := make([]propagation.TextMapPropagator, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case PropagatorTraceContext:
			props = append(props, propagation.TraceContext{})
		case PropagatorBaggage:
			props = append(props, propagation.Baggage{})
		default:
			return nil, fmt.Errorf("unknown propagator %q", name)
		}
	}
	return propagation.NewCompositeTextMapPropagator(props...), nil
}

// Enabled reports whether extraction is active.
func (e *Extractor) Enabled() bool {
	return e != nil && e.enabled
}

// Extract returns ctx carrying the remote span context found in headers.
// Without a valid traceparent, or when disabled, ctx is returned unchanged.
func (e *Extractor) Extract(ctx context.Context, headers http.Header) context.Context {
	if !e.Enabled() {
		return ctx
	}
	return e.propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the span context in ctx into headers.
func (e *Extractor) Inject(ctx context.Context, headers http.Header) {
	if !e.Enabled() {
		return
	}
	e.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}

// Middleware extracts trace context from each request, records the IDs on
// the logging context, and echoes them in X-Trace-ID / X-Span-ID.
func (e *Extractor) Middleware(next http.Handler) http.Handler {
	if !e.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := e.Extract(r.Context(), r.Header)

		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			traceID, spanID := sc.TraceID().String(), sc.SpanID().String()
			ctx = logging.WithTraceID(ctx, traceID)
			ctx = logging.WithSpanID(ctx, spanID)
			w.Header().Set(HeaderTraceID, traceID)
			w.Header().Set(HeaderSpanID, spanID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceID returns the hex trace ID in ctx, or "" when there is none.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the hex span ID in ctx, or "" when there is none.
func SpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}

// ValidateTraceParent reports whether traceparent has the W3C layout
// version-trace_id-parent_id-flags with non-zero IDs, e.g.
// 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01.
func ValidateTraceParent(traceparent string) bool {
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 {
		return false
	}
	for i, n := range []int{2, 32, 16, 2} {
		if len(parts[i]) != n || !isHex(parts[i]) {
			return false
		}
	}
	return strings.Trim(parts[1], "0") != "" && strings.Trim(parts[2], "0") != ""
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
