package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/export"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/forwarder"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/instrument"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/otlp"
)

func TestAPIMetrics_CollectorFailureLeavesResponseAlone(t *testing.T) {
	var collectorHits atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		collectorHits.Add(1)
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer collector.Close()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := export.New(export.Config{
		Endpoint:   collector.URL + "/otlp",
		InstanceID: "123456",
		APIKey:     "glc_key",
		Timeout:    2 * time.Second,
	}, export.WithLogger(quiet), export.WithHTTPClient(collector.Client()))
	if err != nil {
		t.Fatalf("export.New() error = %v", err)
	}
	fwd := forwarder.New(otlp.NewEncoder(otlp.Resource{ServiceName: "uber-fight-admin"}), client, forwarder.WithLogger(quiet))

	handler := instrument.WithAPIMetrics(fwd, "/api/fights", http.MethodPost, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"fight-42"}`)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/fights", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if got := rec.Body.String(); got != `{"id":"fight-42"}` {
		t.Errorf("body = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	// request_count and duration, each rejected by the collector.
	if got := collectorHits.Load(); got < 2 {
		t.Errorf("collector received %d deliveries, want at least 2", got)
	}
}
