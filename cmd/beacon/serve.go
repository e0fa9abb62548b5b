package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/cli"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/server"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/logging"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the telemetry shim",
	Long: `Start the HTTP server that accepts mobile telemetry on /api/logs and
/api/metrics and forwards it to Grafana Cloud.

Without Grafana credentials the shim still runs: events are accepted,
validated and rate limited, and delivery is skipped with a warning.

Examples:
  # Start with defaults and environment overrides
  beacon serve

  # Start with a config file and reload it on change
  beacon serve --config /etc/beacon/config.yaml --watch

  # Override listen address
  beacon serve --listen 127.0.0.1:9090

  # Log payloads instead of sending them
  beacon serve --dry-run --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "log OTLP payloads instead of sending them")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload log level and sanitizer keys when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile, cmd.Flags().Changed("config")); err != nil {
		return err
	}
	cfg := config.GetConfig()

	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		if _, err := logging.ParseLevel(serveFlags.logLevel); err != nil {
			return cli.NewConfigError("log-level", err.Error())
		}
		cfg.Logging.Level = serveFlags.logLevel
	}
	if serveFlags.watch && cfgFile == "" {
		return cli.NewConfigError("watch", "--watch requires --config")
	}

	a, err := newApp(cfg, appOptions{dryRun: serveFlags.dryRun, withServer: true})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	a.logger.SetDefault()
	logStartup(a)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	job, err := a.newHeartbeat()
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	if job != nil {
		if err := job.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer job.Stop()
	}

	if serveFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, a.logger.Component("config"))
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		keepLevel := serveFlags.logLevel != ""
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) { a.applyReload(next, keepLevel) })
			if err != nil {
				a.logger.Error("config watcher exited", "error", err)
			}
		}()
	}

	deps := server.Dependencies{
		Ingest:     a.ingest,
		Health:     a.checker,
		Tracing:    a.extractor,
		APIMetrics: a.forwarder,
		Flusher:    a.exporter,
		Logger:     a.logger.Component("http"),
		Version:    Version,
		Commit:     GitCommit,
		BuildTime:  BuildDate,
	}
	if a.collector.Enabled() {
		deps.MetricsHandler = a.collector.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}

	srv, err := server.NewServer(&cfg.Server, deps)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	serveErr := srv.Start(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.close(closeCtx); err != nil {
		a.logger.Warn("shutdown incomplete", "error", err)
	}

	if serveErr != nil {
		return cli.NewCommandError("serve", serveErr)
	}
	return nil
}

func logStartup(a *app) {
	attrs := []any{
		"version", Version,
		"listen", a.cfg.Server.ListenAddress,
		"endpoint", a.exporter.Endpoint(),
		"export_enabled", a.exporter.Enabled(),
		"dry_run", a.exporter.DryRun(),
		"ratelimit_backend", a.cfg.RateLimit.Backend,
		"heartbeat", a.cfg.Heartbeat.Schedule,
	}
	if cfgFile != "" {
		attrs = append(attrs, "config", cfgFile)
	}
	a.logger.Info("beacon starting", attrs...)
	if !a.exporter.Enabled() {
		a.logger.Warn("GRAFANA_INSTANCE_ID or GRAFANA_API_KEY not set, telemetry will not be forwarded")
	}
}
