package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/storage"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/instrument"
)

// Metric names emitted on every beat.
const (
	MetricHeartbeat = "service.heartbeat"
	MetricStoreSize = "ratelimit.store.size"
)

// OperationName is the performance log name of one beat.
const OperationName = "heartbeat"

// Emitter forwards the heartbeat's logs and gauges. forwarder.Forwarder
// implements it.
type Emitter interface {
	instrument.LogEmitter
	Gauge(ctx context.Context, name string, value float64, attrs event.Attributes)
}

// StoreGauge receives the live store size. metrics.Collector implements it.
type StoreGauge interface {
	SetStoreEntries(n int)
}

// Config configures a Job.
type Config struct {
	// Schedule is a standard cron expression or descriptor such as
	// "@every 1m".
	Schedule string

	// Store is swept and measured on every beat. Optional.
	Store storage.Store

	Emitter Emitter

	// Gauge mirrors the store size into self-metrics. Optional.
	Gauge StoreGauge

	Logger *slog.Logger
}

// Job periodically reports liveness and rate-limit store size.
type Job struct {
	config   Config
	schedule cron.Schedule
	cron     *cron.Cron
	cronLog  cron.Logger
	logger   *slog.Logger
	started  time.Time

	mu      sync.Mutex
	running bool
}

// New validates cfg and returns a stopped Job.
func New(cfg Config) (*Job, error) {
	if cfg.Emitter == nil {
		return nil, errors.New("heartbeat: emitter cannot be nil")
	}
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", cfg.Schedule, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "heartbeat")

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	return &Job{
		config:   cfg,
		schedule: schedule,
		cronLog:  cronLogger,
		logger:   logger,
		started:  time.Now(),
	}, nil
}

// Start schedules the job. Beats run until ctx is cancelled or Stop is
// called. A stopped job can be started again; each start gets its own
// scheduler so beats never double up.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return errors.New("heartbeat: already running")
	}

	c := cron.New(cron.WithLogger(j.cronLog), cron.WithChain(cron.SkipIfStillRunning(j.cronLog)))
	c.Schedule(j.schedule, cron.FuncJob(func() {
		if err := j.RunOnce(ctx); err != nil {
			j.logger.Warn("heartbeat failed", "error", err)
		}
	}))
	c.Start()
	j.cron = c
	j.running = true

	j.logger.Info("heartbeat scheduler started", "schedule", j.config.Schedule)

	go func() {
		<-ctx.Done()
		j.stop(c)
	}()

	return nil
}

// RunOnce performs one beat: it sweeps expired rate-limit windows, then
// emits the heartbeat and store size gauges. The beat is wrapped in
// performance logging.
func (j *Job) RunOnce(ctx context.Context) error {
	return instrument.WithPerformanceLogging(ctx, j.config.Emitter, OperationName, func(ctx context.Context) error {
		attrs := event.Attributes{"uptime_seconds": int64(time.Since(j.started).Seconds())}
		j.config.Emitter.Gauge(ctx, MetricHeartbeat, 1, attrs)

		if j.config.Store == nil {
			return nil
		}

		now := time.Now()
		swept, err := j.config.Store.Sweep(ctx, now)
		if err != nil {
			return fmt.Errorf("sweep rate-limit store: %w", err)
		}
		size, err := j.config.Store.Len(ctx)
		if err != nil {
			return fmt.Errorf("measure rate-limit store: %w", err)
		}

		j.config.Emitter.Gauge(ctx, MetricStoreSize, float64(size), nil)
		if j.config.Gauge != nil {
			j.config.Gauge.SetStoreEntries(size)
		}
		if swept > 0 {
			j.logger.Debug("swept expired rate-limit windows", "swept", swept, "remaining", size)
		}
		return nil
	})
}

// Stop stops scheduling and waits for a running beat to finish.
func (j *Job) Stop() {
	j.stop(nil)
}

// stop halts the current scheduler. A non-nil c only stops that scheduler,
// so a context from an earlier Start cannot stop a later one.
func (j *Job) stop(c *cron.Cron) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running || (c != nil && c != j.cron) {
		return
	}
	<-j.cron.Stop().Done()
	j.running = false
	j.logger.Info("heartbeat scheduler stopped")
}

// IsRunning reports whether the job is scheduled.
func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// NextRun returns the next scheduled beat, or nil when not running.
func (j *Job) NextRun() *time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return nil
	}
	entries := j.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
