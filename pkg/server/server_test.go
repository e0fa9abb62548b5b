package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/ingest"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/ratelimit"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/storage"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/health"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/instrument"
)

type fakeForwarder struct {
	mu       sync.Mutex
	logs     int
	counters map[string]int
}

func (f *fakeForwarder) Emit(context.Context, event.LogEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs++
}

func (f *fakeForwarder) Metric(context.Context, event.MetricEvent) {}

func (f *fakeForwarder) Counter(_ context.Context, name string, _ float64, _ event.Attributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counters == nil {
		f.counters = map[string]int{}
	}
	f.counters[name]++
}

func (f *fakeForwarder) Histogram(context.Context, string, float64, event.Attributes) {}

type fakeFlusher struct {
	mu     sync.Mutex
	waited bool
}

func (f *fakeFlusher) Wait(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waited = true
	return nil
}

func testConfig() *config.ServerConfig {
	cfg := config.NewDefault()
	cfg.Server.MaxBodyBytes = 1024
	cfg.Server.ShutdownTimeout = 2 * time.Second
	return &cfg.Server
}

func newTestServer(t *testing.T, fwd *fakeForwarder, flusher Flusher) *Server {
	t.Helper()

	store := storage.NewMemoryStore()
	logs, _ := ratelimit.NewFixedWindow(store, ratelimit.Config{Name: "logs", Limit: 100})
	metrics, _ := ratelimit.NewFixedWindow(store, ratelimit.Config{Name: "metrics", Limit: 200})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h, err := ingest.NewHandler(ingest.Config{
		Parser:         ingest.NewParser(2000, []string{"mobile.app."}, "mobile-android"),
		LogsLimiter:    logs,
		MetricsLimiter: metrics,
		Forwarder:      fwd,
		Logger:         logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	srv, err := NewServer(testConfig(), Dependencies{
		Ingest:         h,
		Health:         health.New(time.Second),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		MetricsPath:    "/metrics",
		APIMetrics:     fwd,
		Flusher:        flusher,
		Logger:         logger,
		Version:        "1.2.3",
	})
	if err != nil {
		t.Fatal(err)
	}
	return srv
}

func TestNewServer_Validation(t *testing.T) {
	if _, err := NewServer(nil, Dependencies{}); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewServer(testConfig(), Dependencies{}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}

func TestHandler_Routes(t *testing.T) {
	fwd := &fakeForwarder{}
	handler := newTestServer(t, fwd, nil).Handler()

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"log ingestion", http.MethodPost, "/api/logs", `{"message":"hi"}`, http.StatusOK},
		{"metric ingestion", http.MethodPost, "/api/metrics", `{"type":"counter","name":"mobile.app.start","value":1}`, http.StatusOK},
		{"liveness", http.MethodGet, "/health", "", http.StatusOK},
		{"readiness", http.MethodGet, "/ready", "", http.StatusOK},
		{"version", http.MethodGet, "/version", "", http.StatusOK},
		{"self metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"body too large", http.MethodPost, "/api/logs", `{"message":"` + strings.Repeat("a", 2048) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("%s %s: status = %d, want %d (%s)", tt.method, tt.path, w.Code, tt.wantCode, w.Body.String())
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID on every response")
			}
		})
	}

	if fwd.counters[instrument.MetricRequestCount] == 0 {
		t.Errorf("expected API metrics for ingestion routes, got %v", fwd.counters)
	}
}

func TestHandler_Preflight(t *testing.T) {
	handler := newTestServer(t, &fakeForwarder{}, nil).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/logs", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	fwd := &fakeForwarder{}
	flusher := &fakeFlusher{}
	srv := newTestServer(t, fwd, flusher)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/logs"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Post(url, "application/json", strings.NewReader(`{"message":"hello"}`))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never became reachable: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !srv.IsRunning() {
		t.Error("expected server to be running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if srv.IsRunning() {
		t.Error("expected server to be stopped")
	}
	flusher.mu.Lock()
	defer flusher.mu.Unlock()
	if !flusher.waited {
		t.Error("expected pending deliveries to be drained on shutdown")
	}
}

func TestServe_Stop(t *testing.T) {
	srv := newTestServer(t, &fakeForwarder{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), ln) }()

	for i := 0; i < 50 && srv.Addr() == nil; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	srv.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
