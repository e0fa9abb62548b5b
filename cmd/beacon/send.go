package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/cli"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/config"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/otlp"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/sanitize"
)

var sendFlags struct {
	dryRun  bool
	timeout time.Duration
	attrs   []string

	level   string
	message string

	kind  string
	name  string
	value float64
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one event to the collector and wait for the result",
	Long: `Send a single log or metric event synchronously, bypassing the HTTP
server. The event goes through the same sanitizer and encoder as ingested
events. The command exits non-zero when delivery fails, which makes it a
quick credentials check.

Examples:
  beacon send log --level warn --message "smoke test" --attr screen=lobby
  beacon send metric --type histogram --name mobile.network.duration --value 184`,
}

var sendLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Send one log event",
	Args:  cobra.NoArgs,
	RunE:  runSendLog,
}

var sendMetricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Send one metric event",
	Args:  cobra.NoArgs,
	RunE:  runSendMetric,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.AddCommand(sendLogCmd, sendMetricCmd)

	sendCmd.PersistentFlags().BoolVar(&sendFlags.dryRun, "dry-run", false, "encode and log the payload without sending it")
	sendCmd.PersistentFlags().DurationVar(&sendFlags.timeout, "timeout", 15*time.Second, "overall deadline for the delivery")
	sendCmd.PersistentFlags().StringArrayVarP(&sendFlags.attrs, "attr", "a", nil, "attribute as key=value (repeatable)")

	sendLogCmd.Flags().StringVar(&sendFlags.level, "level", string(event.LevelInfo), "log level: debug, info, warn, error")
	sendLogCmd.Flags().StringVarP(&sendFlags.message, "message", "m", "", "log message")
	_ = sendLogCmd.MarkFlagRequired("message")

	sendMetricCmd.Flags().StringVar(&sendFlags.kind, "type", string(event.KindCounter), "metric type: counter, gauge, histogram")
	sendMetricCmd.Flags().StringVar(&sendFlags.name, "name", "", "metric name")
	sendMetricCmd.Flags().Float64Var(&sendFlags.value, "value", 1, "metric value")
	_ = sendMetricCmd.MarkFlagRequired("name")
}

func runSendLog(cmd *cobra.Command, args []string) error {
	level, err := event.ParseLevel(sendFlags.level)
	if err != nil {
		return cli.NewConfigError("level", err.Error())
	}
	attrs, err := parseAttrs(sendFlags.attrs)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sendFlags.timeout)
	defer cancel()

	ev := event.NewLog(level, sendFlags.message, attrs)
	return deliverLog(ctx, cfg, ev, cmd.OutOrStdout(), appOptions{out: cmd.ErrOrStderr(), dryRun: sendFlags.dryRun})
}

func runSendMetric(cmd *cobra.Command, args []string) error {
	kind, err := event.ParseKind(sendFlags.kind)
	if err != nil {
		return cli.NewConfigError("type", err.Error())
	}
	attrs, err := parseAttrs(sendFlags.attrs)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sendFlags.timeout)
	defer cancel()

	ev := event.NewMetric(kind, sendFlags.name, sendFlags.value, attrs)
	return deliverMetric(ctx, cfg, ev, cmd.OutOrStdout(), appOptions{out: cmd.ErrOrStderr(), dryRun: sendFlags.dryRun})
}

// deliverLog sanitizes, encodes and synchronously delivers one log event.
// In dry-run mode the OTLP/JSON payload is written to out instead.
func deliverLog(ctx context.Context, cfg *config.Config, ev event.LogEvent, out io.Writer, opts appOptions) error {
	a, err := newApp(cfg, opts)
	if err != nil {
		return cli.NewCommandError("send log", err)
	}

	ev = sanitize.New(cfg.Sanitizer.ExtraKeys...).Log(ev)
	payload := a.encoder.EncodeLog(ctx, ev)

	if opts.dryRun {
		body, err := otlp.MarshalLogs(payload)
		if err != nil {
			return cli.NewCommandError("send log", err)
		}
		fmt.Fprintln(out, string(body))
		return nil
	}
	if err := a.exporter.DeliverLogs(ctx, payload); err != nil {
		return cli.NewCommandError("send log", err)
	}
	fmt.Fprintf(out, "✓ log delivered to %s\n", a.exporter.Endpoint())
	return nil
}

// deliverMetric is deliverLog for metric events.
func deliverMetric(ctx context.Context, cfg *config.Config, ev event.MetricEvent, out io.Writer, opts appOptions) error {
	a, err := newApp(cfg, opts)
	if err != nil {
		return cli.NewCommandError("send metric", err)
	}

	ev = sanitize.New(cfg.Sanitizer.ExtraKeys...).Metric(ev)
	payload := a.encoder.EncodeMetric(ev)

	if opts.dryRun {
		body, err := otlp.MarshalMetrics(payload)
		if err != nil {
			return cli.NewCommandError("send metric", err)
		}
		fmt.Fprintln(out, string(body))
		return nil
	}
	if err := a.exporter.DeliverMetrics(ctx, payload); err != nil {
		return cli.NewCommandError("send metric", err)
	}
	fmt.Fprintf(out, "✓ metric delivered to %s\n", a.exporter.Endpoint())
	return nil
}

// parseAttrs turns key=value flags into attributes. Values that parse as
// integers, floats or booleans keep that type.
func parseAttrs(pairs []string) (event.Attributes, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	attrs := make(event.Attributes, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, cli.NewConfigError("attr", fmt.Sprintf("%q is not key=value", pair))
		}
		attrs[key] = attrValue(raw)
	}
	return attrs, nil
}

func attrValue(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
