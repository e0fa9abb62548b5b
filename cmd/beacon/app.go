package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/heartbeat"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/ingest"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/ratelimit"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/storage"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/export"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/forwarder"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/health"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/logging"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/metrics"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/otlp"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/sanitize"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/tracing"
)

// Health check names registered on /ready.
const (
	checkRateLimitStore = "ratelimit_store"
	checkExporter       = "exporter"
)

// app holds the components shared by serve and send.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	collector *metrics.Collector
	encoder   *otlp.Encoder
	exporter  *export.Client
	forwarder *forwarder.Forwarder
	store     storage.Store
	extractor *tracing.Extractor
	checker   *health.Checker
	ingest    *ingest.Handler
}

type appOptions struct {
	out    io.Writer
	dryRun bool

	// withServer also builds the rate-limit store, the ingestion handler
	// and the health checker.
	withServer bool

	exportOpts []export.Option
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Redact:    cfg.Logging.Redact,
		ExtraKeys: cfg.Sanitizer.ExtraKeys,
		Writer:    opts.out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.collector = metrics.NewCollector(&cfg.Metrics, nil)
	a.encoder = otlp.NewEncoder(newResource(cfg.Grafana)).WithHistogramBounds(cfg.Export.HistogramBounds)

	exportOpts := append([]export.Option{
		export.WithLogger(logger.Component("export")),
		export.WithRecorder(a.collector),
	}, opts.exportOpts...)
	a.exporter, err = export.New(export.Config{
		Endpoint:     cfg.Grafana.Endpoint,
		InstanceID:   cfg.Grafana.InstanceID,
		APIKey:       cfg.Grafana.APIKey,
		Timeout:      cfg.Export.Timeout,
		Gzip:         cfg.Export.Gzip,
		MaxInFlight:  cfg.Export.MaxInFlight,
		WarnInterval: cfg.Export.WarnInterval,
		DryRun:       opts.dryRun,
	}, exportOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	a.forwarder = forwarder.New(a.encoder, a.exporter,
		forwarder.WithSanitizer(sanitize.New(cfg.Sanitizer.ExtraKeys...)),
		forwarder.WithLogger(logger.Component("forwarder")),
		forwarder.WithObserver(a.collector),
		forwarder.WithLocalMirror(opts.dryRun),
	)

	if !opts.withServer {
		return a, nil
	}

	if a.extractor, err = tracing.New(&cfg.Tracing); err != nil {
		return nil, fmt.Errorf("failed to configure trace propagation: %w", err)
	}

	if a.store, err = newStore(cfg.RateLimit); err != nil {
		return nil, fmt.Errorf("failed to open rate-limit store: %w", err)
	}

	if a.ingest, err = newIngestHandler(cfg, a.store, a.forwarder, a.collector, logger); err != nil {
		_ = a.store.Close()
		return nil, err
	}

	a.checker = health.New(0)
	a.checker.RegisterCheck(checkRateLimitStore, health.PingCheck(a.store))
	a.checker.RegisterCheck(checkExporter, health.EnabledCheck(a.exporter.Enabled, "grafana credentials not configured"))

	return a, nil
}

func newIngestHandler(cfg *config.Config, store storage.Store, fwd *forwarder.Forwarder, collector *metrics.Collector, logger *logging.Logger) (*ingest.Handler, error) {
	logsLimiter, err := ratelimit.NewFixedWindow(store, ratelimit.Config{
		Name:  ingest.EndpointLogs,
		Limit: int64(cfg.RateLimit.LogsPerMinute),
	})
	if err != nil {
		return nil, err
	}
	metricsLimiter, err := ratelimit.NewFixedWindow(store, ratelimit.Config{
		Name:  ingest.EndpointMetrics,
		Limit: int64(cfg.RateLimit.MetricsPerMinute),
	})
	if err != nil {
		return nil, err
	}

	return ingest.NewHandler(ingest.Config{
		Parser:         ingest.NewParser(cfg.Ingest.MaxMessageLength, cfg.Ingest.MetricPrefixes, cfg.Ingest.MetricSource),
		LogsLimiter:    logsLimiter,
		MetricsLimiter: metricsLimiter,
		Identity: ratelimit.ClientIdentity{
			PlatformHeaders: cfg.RateLimit.PlatformHeaders,
			UseRemoteAddr:   cfg.RateLimit.UseRemoteAddr,
		},
		Forwarder: fwd,
		Recorder:  collector,
		Logger:    logger.Component("ingest"),
	})
}

func newStore(cfg config.RateLimitConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return storage.NewSQLiteStoreWithConfig(storage.SQLiteStoreConfig{
			DBPath:         cfg.SQLite.Path,
			Driver:         cfg.SQLite.Driver,
			BusyTimeout:    cfg.SQLite.BusyTimeout,
			SweepThreshold: cfg.SweepThreshold,
		})
	case "redis":
		return storage.NewRedisStore(storage.RedisStoreConfig{
			URL:    cfg.Redis.URL,
			Prefix: cfg.Redis.Prefix,
		})
	case "memory", "":
		return storage.NewMemoryStoreWithConfig(storage.MemoryStoreConfig{
			SweepThreshold: cfg.SweepThreshold,
		}), nil
	default:
		return nil, fmt.Errorf("unknown rate-limit backend %q", cfg.Backend)
	}
}

func newResource(g config.GrafanaConfig) otlp.Resource {
	instanceID := g.ServiceInstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return otlp.Resource{
		ServiceName:    g.ServiceName,
		ServiceVersion: g.ServiceVersion,
		Environment:    g.Environment,
		Platform:       g.Platform,
		Region:         g.Region,
		InstanceID:     instanceID,
	}
}

// newHeartbeat returns nil when the heartbeat is switched off.
func (a *app) newHeartbeat() (*heartbeat.Job, error) {
	if !a.cfg.Heartbeat.Enabled() {
		return nil, nil
	}
	return heartbeat.New(heartbeat.Config{
		Schedule: a.cfg.Heartbeat.Schedule,
		Store:    a.store,
		Emitter:  a.forwarder,
		Gauge:    a.collector,
		Logger:   a.logger.Component("heartbeat"),
	})
}

// applyReload applies the reloadable parts of a new configuration.
func (a *app) applyReload(cfg *config.Config, keepLevel bool) {
	if !keepLevel {
		if err := a.logger.SetLevel(cfg.Logging.Level); err != nil {
			a.logger.Warn("ignoring reloaded log level", "level", cfg.Logging.Level, "error", err)
		}
	}
	a.logger.SetExtraKeys(cfg.Sanitizer.ExtraKeys)
	a.forwarder.SetSanitizer(sanitize.New(cfg.Sanitizer.ExtraKeys...))
}

// close waits for pending deliveries and releases the store.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if err := a.exporter.Wait(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush deliveries: %w", err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rate-limit store: %w", err))
		}
	}
	return errors.Join(errs...)
}
