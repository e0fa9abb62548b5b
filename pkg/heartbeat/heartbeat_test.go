package heartbeat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/storage"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
)

type gauge struct {
	name  string
	value float64
}

type fakeEmitter struct {
	mu     sync.Mutex
	gauges []gauge
	logs   []event.Attributes
}

func (f *fakeEmitter) Log(_ context.Context, _ event.Level, _ string, attrs event.Attributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, attrs)
}

func (f *fakeEmitter) Gauge(_ context.Context, name string, value float64, _ event.Attributes) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges = append(f.gauges, gauge{name, value})
}

func (f *fakeEmitter) beats() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, g := range f.gauges {
		if g.name == MetricHeartbeat {
			n++
		}
	}
	return n
}

type fakeGauge struct{ n int }

func (g *fakeGauge) SetStoreEntries(n int) { g.n = n }

type brokenStore struct{ storage.Store }

func (brokenStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, errors.New("connection refused")
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		emitter  Emitter
		wantErr  bool
	}{
		{"descriptor", "@every 1m", &fakeEmitter{}, false},
		{"cron expression", "*/5 * * * *", &fakeEmitter{}, false},
		{"invalid schedule", "every minute", &fakeEmitter{}, true},
		{"empty schedule", "", &fakeEmitter{}, true},
		{"nil emitter", "@every 1m", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{Schedule: tt.schedule, Emitter: tt.emitter, Logger: discard()})
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	now := time.Now()

	// One live window and one already expired.
	if _, err := store.Hit(ctx, "logs|203.0.113.1", now, time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Hit(ctx, "logs|203.0.113.2", now.Add(-2*time.Minute), time.Minute); err != nil {
		t.Fatal(err)
	}

	emitter := &fakeEmitter{}
	g := &fakeGauge{}
	job, err := New(Config{Schedule: "@every 1m", Store: store, Emitter: emitter, Gauge: g, Logger: discard()})
	if err != nil {
		t.Fatal(err)
	}

	if err := job.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	want := []gauge{{MetricHeartbeat, 1}, {MetricStoreSize, 1}}
	if len(emitter.gauges) != len(want) {
		t.Fatalf("gauges = %v, want %v", emitter.gauges, want)
	}
	for i := range want {
		if emitter.gauges[i] != want[i] {
			t.Errorf("gauge %d = %v, want %v", i, emitter.gauges[i], want[i])
		}
	}
	if g.n != 1 {
		t.Errorf("store gauge = %d, want 1", g.n)
	}

	if len(emitter.logs) != 1 {
		t.Fatalf("expected one performance log, got %d", len(emitter.logs))
	}
	if emitter.logs[0]["operation"] != OperationName || emitter.logs[0]["status"] != "success" {
		t.Errorf("unexpected performance attrs %v", emitter.logs[0])
	}
}

func TestRunOnce_WithoutStore(t *testing.T) {
	emitter := &fakeEmitter{}
	job, err := New(Config{Schedule: "@every 1m", Emitter: emitter, Logger: discard()})
	if err != nil {
		t.Fatal(err)
	}

	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(emitter.gauges) != 1 || emitter.gauges[0].name != MetricHeartbeat {
		t.Errorf("expected only the heartbeat gauge, got %v", emitter.gauges)
	}
}

func TestRunOnce_StoreError(t *testing.T) {
	emitter := &fakeEmitter{}
	job, err := New(Config{Schedule: "@every 1m", Store: brokenStore{}, Emitter: emitter, Logger: discard()})
	if err != nil {
		t.Fatal(err)
	}

	if err := job.RunOnce(context.Background()); err == nil {
		t.Fatal("expected store error")
	}
	if len(emitter.logs) != 1 || emitter.logs[0]["status"] != "error" {
		t.Errorf("expected an error performance log, got %v", emitter.logs)
	}
}

func TestStartStop(t *testing.T) {
	emitter := &fakeEmitter{}
	job, err := New(Config{Schedule: "@every 1s", Store: storage.NewMemoryStore(), Emitter: emitter, Logger: discard()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := job.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := job.Start(ctx); err == nil {
		t.Error("expected error on second Start")
	}
	if !job.IsRunning() {
		t.Fatal("expected job to be running")
	}
	if next := job.NextRun(); next == nil || !next.After(time.Now().Add(-time.Second)) {
		t.Errorf("unexpected next run %v", next)
	}

	deadline := time.Now().Add(5 * time.Second)
	for emitter.beats() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if emitter.beats() == 0 {
		t.Fatal("expected at least one scheduled beat")
	}

	job.Stop()
	if job.IsRunning() {
		t.Error("expected job to be stopped")
	}
	if job.NextRun() != nil {
		t.Error("expected no next run after Stop")
	}
	job.Stop()
}

func TestStop_OnContextCancel(t *testing.T) {
	job, err := New(Config{Schedule: "@every 1h", Emitter: &fakeEmitter{}, Logger: discard()})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := job.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for job.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if job.IsRunning() {
		t.Error("expected job to stop when context is cancelled")
	}
}

func TestRestart_SchedulesOnce(t *testing.T) {
	job, err := New(Config{Schedule: "@every 1h", Emitter: &fakeEmitter{}, Logger: discard()})
	if err != nil {
		t.Fatal(err)
	}

	firstCtx, firstCancel := context.WithCancel(context.Background())
	if err := job.Start(firstCtx); err != nil {
		t.Fatal(err)
	}
	job.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := job.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer job.Stop()

	if n := len(job.cron.Entries()); n != 1 {
		t.Errorf("expected 1 scheduled entry after restart, got %d", n)
	}

	// Cancelling the first start's context must not stop the restarted job.
	firstCancel()
	time.Sleep(100 * time.Millisecond)
	if !job.IsRunning() {
		t.Error("restarted job stopped by an earlier context")
	}
}
