package instrument

import (
	"context"
	"net/http"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
)

// HTTP server metric names.
const (
	MetricRequestCount = "http.server.request_count"
	MetricDuration     = "http.server.duration"
	MetricErrorCount   = "http.server.error_count"
)

// MetricEmitter forwards metric events. forwarder.Forwarder implements it.
type MetricEmitter interface {
	Counter(ctx context.Context, name string, value float64, attrs event.Attributes)
	Histogram(ctx context.Context, name string, value float64, attrs event.Attributes)
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.status = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// WithAPIMetrics forwards request count, duration (ms) and, for 5xx
// responses or panics, an error count for every request served by next.
// Metrics carry http.route, http.method and http.status_code. An empty
// method records the request's own method.
//
// A panic in next is recorded as status 500 and then re-raised so outer
// recovery middleware still sees it.
func WithAPIMetrics(metrics MetricEmitter, route, method string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		m := method
		if m == "" {
			m = r.Method
		}

		defer func() {
			p := recover()
			status := rec.status
			if p != nil {
				status = http.StatusInternalServerError
			}

			ctx := r.Context()
			attrs := event.Attributes{
				"http.route":       route,
				"http.method":      m,
				"http.status_code": status,
			}
			elapsed := now().Sub(start)

			safeEmit(func() {
				metrics.Counter(ctx, MetricRequestCount, 1, attrs)
				metrics.Histogram(ctx, MetricDuration, float64(elapsed.Milliseconds()), attrs)
				if status >= http.StatusInternalServerError {
					metrics.Counter(ctx, MetricErrorCount, 1, attrs)
				}
			})

			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(rec, r)
	})
}
