package instrument

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
)

type loggedEvent struct {
	level   event.Level
	message string
	attrs   event.Attributes
}

type metricEvent struct {
	kind  string
	name  string
	value float64
	attrs event.Attributes
}

type fakeEmitter struct {
	mu      sync.Mutex
	logs    []loggedEvent
	metrics []metricEvent
}

func (f *fakeEmitter) Log(_ context.Context, level event.Level, message string, attrs event.Attributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, loggedEvent{level, message, attrs})
}

func (f *fakeEmitter) Counter(_ context.Context, name string, value float64, attrs event.Attributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = append(f.metrics, metricEvent{"counter", name, value, attrs})
}

func (f *fakeEmitter) Histogram(_ context.Context, name string, value float64, attrs event.Attributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = append(f.metrics, metricEvent{"histogram", name, value, attrs})
}

// fakeClock makes each call to now advance by step.
func fakeClock(t *testing.T, step time.Duration) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	calls := 0
	now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ts := base.Add(time.Duration(calls) * step)
		calls++
		return ts
	}
	t.Cleanup(func() { now = time.Now })
}

func TestWithPerformanceLogging(t *testing.T) {
	opErr := errors.New("boom")

	tests := []struct {
		name      string
		elapsed   time.Duration
		err       error
		wantLevel event.Level
		wantSlow  bool
		wantState string
	}{
		{"fast success", 100 * time.Millisecond, nil, event.LevelInfo, false, StatusSuccess},
		{"at slow threshold", 3000 * time.Millisecond, nil, event.LevelInfo, false, StatusSuccess},
		{"slow", 3500 * time.Millisecond, nil, event.LevelInfo, true, StatusSuccess},
		{"very slow", 6000 * time.Millisecond, nil, event.LevelWarn, true, StatusSuccess},
		{"fast error", 10 * time.Millisecond, opErr, event.LevelInfo, false, StatusError},
		{"very slow error", 7000 * time.Millisecond, opErr, event.LevelWarn, true, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeClock(t, tt.elapsed)
			em := &fakeEmitter{}

			err := WithPerformanceLogging(context.Background(), em, "sync_users", func(context.Context) error {
				return tt.err
			})

			if !errors.Is(err, tt.err) || (tt.err == nil && err != nil) {
				t.Fatalf("expected op error %v returned unchanged, got %v", tt.err, err)
			}
			if len(em.logs) != 1 {
				t.Fatalf("expected 1 log, got %d", len(em.logs))
			}

			got := em.logs[0]
			if got.level != tt.wantLevel {
				t.Errorf("expected level %s, got %s", tt.wantLevel, got.level)
			}
			if got.attrs["operation"] != "sync_users" {
				t.Errorf("expected operation attribute, got %v", got.attrs["operation"])
			}
			if got.attrs["duration_ms"] != tt.elapsed.Milliseconds() {
				t.Errorf("expected duration_ms %d, got %v", tt.elapsed.Milliseconds(), got.attrs["duration_ms"])
			}
			if got.attrs["status"] != tt.wantState {
				t.Errorf("expected status %s, got %v", tt.wantState, got.attrs["status"])
			}
			if _, slow := got.attrs["slow"]; slow != tt.wantSlow {
				t.Errorf("expected slow=%v, got attrs %v", tt.wantSlow, got.attrs)
			}
			if tt.err != nil && got.attrs["error"] != tt.err.Error() {
				t.Errorf("expected error attribute %q, got %v", tt.err.Error(), got.attrs["error"])
			}
		})
	}
}

func TestMeasure_ReturnsValue(t *testing.T) {
	em := &fakeEmitter{}

	got, err := Measure(context.Background(), em, "count", func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("expected 42, nil; got %d, %v", got, err)
	}
	if len(em.logs) != 1 {
		t.Errorf("expected 1 log, got %d", len(em.logs))
	}
}

func TestMeasure_PanicReraised(t *testing.T) {
	em := &fakeEmitter{}

	defer func() {
		r := recover()
		if r != "kaboom" {
			t.Fatalf("expected original panic value, got %v", r)
		}
		if len(em.logs) != 1 || em.logs[0].attrs["status"] != StatusError {
			t.Errorf("expected error performance log before re-panic, got %+v", em.logs)
		}
		if em.logs[0].attrs["error"] != "panic: kaboom" {
			t.Errorf("unexpected error attribute %v", em.logs[0].attrs["error"])
		}
	}()

	_ = WithPerformanceLogging(context.Background(), em, "explode", func(context.Context) error {
		panic("kaboom")
	})
}

func TestWithAPIMetrics(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantError  bool
	}{
		{
			name:       "ok implicit",
			handler:    func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "client error",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "server error",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantStatus: http.StatusBadGateway,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeClock(t, 25*time.Millisecond)
			em := &fakeEmitter{}
			h := WithAPIMetrics(em, "/api/fights", "", tt.handler)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fights", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("response changed: expected %d, got %d", tt.wantStatus, rec.Code)
			}

			wantCount := 2
			if tt.wantError {
				wantCount = 3
			}
			if len(em.metrics) != wantCount {
				t.Fatalf("expected %d metrics, got %d: %+v", wantCount, len(em.metrics), em.metrics)
			}

			if em.metrics[0].name != MetricRequestCount || em.metrics[0].value != 1 {
				t.Errorf("unexpected request count %+v", em.metrics[0])
			}
			if em.metrics[1].name != MetricDuration || em.metrics[1].kind != "histogram" || em.metrics[1].value != 25 {
				t.Errorf("unexpected duration %+v", em.metrics[1])
			}
			attrs := em.metrics[0].attrs
			if attrs["http.route"] != "/api/fights" || attrs["http.method"] != http.MethodPost || attrs["http.status_code"] != tt.wantStatus {
				t.Errorf("unexpected attributes %v", attrs)
			}
			if tt.wantError && em.metrics[2].name != MetricErrorCount {
				t.Errorf("expected error count, got %+v", em.metrics[2])
			}
		})
	}
}

func TestWithAPIMetrics_Panic(t *testing.T) {
	em := &fakeEmitter{}
	h := WithAPIMetrics(em, "/api/boom", http.MethodGet, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler exploded")
	}))

	func() {
		defer func() {
			if r := recover(); r != "handler exploded" {
				t.Fatalf("expected panic to be re-raised, got %v", r)
			}
		}()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/boom", nil))
	}()

	if len(em.metrics) != 3 {
		t.Fatalf("expected request, duration and error metrics, got %d", len(em.metrics))
	}
	if em.metrics[0].attrs["http.status_code"] != http.StatusInternalServerError {
		t.Errorf("expected status forced to 500, got %v", em.metrics[0].attrs["http.status_code"])
	}
	if em.metrics[2].name != MetricErrorCount {
		t.Errorf("expected error count, got %s", em.metrics[2].name)
	}
}

type panickingEmitter struct{}

func (panickingEmitter) Counter(context.Context, string, float64, event.Attributes) {
	panic("telemetry broken")
}
func (panickingEmitter) Histogram(context.Context, string, float64, event.Attributes) {}

func TestWithAPIMetrics_TelemetryFailureIgnored(t *testing.T) {
	h := WithAPIMetrics(panickingEmitter{}, "/api/x", "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/x", nil))
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201 unaffected by telemetry, got %d", rec.Code)
	}
}
