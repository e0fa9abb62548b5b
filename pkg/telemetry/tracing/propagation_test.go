package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/logging"
)

const (
	testTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	testTraceID     = "4bf92f3577b34da6a3ce929d0e0e4736"
	testSpanID      = "00f067aa0ba902b7"
)

func newExtractor(t *testing.T, enabled bool) *Extractor {
	t.Helper()
	e, err := New(&config.TracingConfig{Enabled: enabled})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestExtract(t *testing.T) {
	e := newExtractor(t, true)

	h := http.Header{}
	h.Set("traceparent", testTraceParent)
	ctx := e.Extract(context.Background(), h)

	if got := TraceID(ctx); got != testTraceID {
		t.Errorf("expected trace ID %q, got %q", testTraceID, got)
	}
	if got := SpanID(ctx); got != testSpanID {
		t.Errorf("expected span ID %q, got %q", testSpanID, got)
	}
}

func TestExtract_NoHeader(t *testing.T) {
	e := newExtractor(t, true)
	ctx := e.Extract(context.Background(), http.Header{})

	if TraceID(ctx) != "" || SpanID(ctx) != "" {
		t.Error("expected no IDs without traceparent")
	}
}

func TestExtract_Disabled(t *testing.T) {
	e := newExtractor(t, false)

	h := http.Header{}
	h.Set("traceparent", testTraceParent)
	if TraceID(e.Extract(context.Background(), h)) != "" {
		t.Error("expected disabled extractor to ignore traceparent")
	}
}

func TestInject_RoundTrip(t *testing.T) {
	e := newExtractor(t, true)

	in := http.Header{}
	in.Set("traceparent", testTraceParent)
	ctx := e.Extract(context.Background(), in)

	out := http.Header{}
	e.Inject(ctx, out)
	if got := out.Get("traceparent"); got != testTraceParent {
		t.Errorf("expected %q, got %q", testTraceParent, got)
	}
}

func TestMiddleware(t *testing.T) {
	e := newExtractor(t, true)

	var gotTrace, gotSpan string
	handler := e.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = logging.GetTraceID(r.Context())
		gotSpan = logging.GetSpanID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/logs", nil)
	req.Header.Set("traceparent", testTraceParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotTrace != testTraceID || gotSpan != testSpanID {
		t.Errorf("expected logging context IDs, got %q/%q", gotTrace, gotSpan)
	}
	if rec.Header().Get(HeaderTraceID) != testTraceID {
		t.Errorf("expected %s header, got %q", HeaderTraceID, rec.Header().Get(HeaderTraceID))
	}
}

func TestNewPropagator(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		wantErr bool
	}{
		{"default", nil, false},
		{"tracecontext only", []string{"tracecontext"}, false},
		{"case insensitive", []string{"TraceContext", " baggage "}, false},
		{"unknown", []string{"b3"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPropagator(tt.names)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateTraceParent(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{testTraceParent, true},
		{"00-4BF92F3577B34DA6A3CE929D0E0E4736-00F067AA0BA902B7-00", true},
		{"00-00000000000000000000000000000000-00f067aa0ba902b7-01", false},
		{"00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01", false},
		{"00-4bf92f3577b34da6a3ce929d0e0e473-00f067aa0ba902b7-01", false},
		{"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7", false},
		{"zz-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateTraceParent(tt.value); got != tt.want {
			t.Errorf("ValidateTraceParent(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
