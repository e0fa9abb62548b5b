package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/pmetric/pmetricotlp"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/logging"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/otlp"
)

// Signal names used in logs and metrics.
const (
	SignalLogs    = "logs"
	SignalMetrics = "metrics"
)

// Delivery outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeDisabled = "disabled"
	OutcomeDryRun   = "dry_run"
)

// Drop reasons.
const (
	DropQueueFull    = "queue_full"
	DropMarshalError = "marshal_error"
)

const jsonContentType = "application/json"

var (
	// ErrNotConfigured is returned by the Deliver methods when the client
	// has no credentials.
	ErrNotConfigured = errors.New("export: OTLP credentials not configured")

	// ErrQueueFull is reported when a detached send is dropped because
	// too many sends are already in flight.
	ErrQueueFull = errors.New("export: too many deliveries in flight")
)

// Config configures a Client.
type Config struct {
	// Endpoint is the OTLP/HTTP base URL; /v1/logs and /v1/metrics are
	// appended.
	Endpoint string

	// InstanceID and APIKey form the basic auth credentials. If either is
	// empty the client is disabled.
	InstanceID string
	APIKey     string

	// Timeout bounds each HTTP request.
	// Default: 10 seconds
	Timeout time.Duration

	// Gzip compresses request bodies.
	Gzip bool

	// MaxInFlight bounds concurrent detached sends.
	// Default: 64
	MaxInFlight int

	// WarnInterval is the minimum interval between repeated warnings.
	// Default: 1 minute
	WarnInterval time.Duration

	// DryRun logs payloads instead of sending them.
	DryRun bool
}

// Recorder receives delivery outcomes. metrics.Collector implements it.
type Recorder interface {
	RecordDelivery(signal, outcome string, duration time.Duration)
	RecordDropped(signal, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDelivery(string, string, time.Duration) {}
func (nopRecorder) RecordDropped(string, string)                 {}

// Option configures optional Client dependencies.
type Option func(*Client)

// WithLogger sets the local logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithHTTPClient replaces the HTTP client. Config.Timeout is not applied.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client sends OTLP/JSON payloads.
type Client struct {
	cfg        Config
	logsURL    string
	metricsURL string
	authHeader string

	http     *http.Client
	logger   *slog.Logger
	recorder Recorder

	inflight chan struct{}
	wg       sync.WaitGroup

	failureWarn  *logging.Throttle
	disabledWarn *logging.Throttle
}

// New creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("export: endpoint cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 64
	}
	if cfg.WarnInterval <= 0 {
		cfg.WarnInterval = time.Minute
	}

	logsURL, err := url.JoinPath(cfg.Endpoint, "/v1/logs")
	if err != nil {
		return nil, fmt.Errorf("export: logs url: %w", err)
	}
	metricsURL, err := url.JoinPath(cfg.Endpoint, "/v1/metrics")
	if err != nil {
		return nil, fmt.Errorf("export: metrics url: %w", err)
	}

	c := &Client{
		cfg:          cfg,
		logsURL:      logsURL,
		metricsURL:   metricsURL,
		logger:       slog.Default(),
		recorder:     nopRecorder{},
		inflight:     make(chan struct{}, cfg.MaxInFlight),
		failureWarn:  logging.NewThrottle(cfg.WarnInterval),
		disabledWarn: logging.NewThrottle(cfg.WarnInterval),
	}
	if cfg.InstanceID != "" && cfg.APIKey != "" {
		c.authHeader = "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.InstanceID+":"+cfg.APIKey))
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}

	return c, nil
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c.authHeader != ""
}

// DryRun reports whether payloads are logged instead of sent.
func (c *Client) DryRun() bool {
	return c.cfg.DryRun
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string {
	return c.cfg.Endpoint
}

// DeliverLogs synchronously sends logs.
func (c *Client) DeliverLogs(ctx context.Context, logs plog.Logs) error {
	body, err := otlp.MarshalLogs(logs)
	if err != nil {
		c.recorder.RecordDropped(SignalLogs, DropMarshalError)
		return err
	}
	return c.deliver(ctx, SignalLogs, body)
}

// DeliverMetrics synchronously sends metrics.
func (c *Client) DeliverMetrics(ctx context.Context, metrics pmetric.Metrics) error {
	body, err := otlp.MarshalMetrics(metrics)
	if err != nil {
		c.recorder.RecordDropped(SignalMetrics, DropMarshalError)
		return err
	}
	return c.deliver(ctx, SignalMetrics, body)
}

// SendLogs delivers logs in the background.
func (c *Client) SendLogs(ctx context.Context, logs plog.Logs) {
	c.Detach(ctx, SignalLogs, func(ctx context.Context) error {
		return c.DeliverLogs(ctx, logs)
	})
}

// SendMetrics delivers metrics in the background.
func (c *Client) SendMetrics(ctx context.Context, metrics pmetric.Metrics) {
	c.Detach(ctx, SignalMetrics, func(ctx context.Context) error {
		return c.DeliverMetrics(ctx, metrics)
	})
}

// Detach runs send in a goroutine whose context keeps ctx's values but not
// its cancellation. If MaxInFlight sends are already running the send is
// dropped and counted. Errors have already been logged by deliver and are
// discarded.
func (c *Client) Detach(ctx context.Context, signal string, send func(context.Context) error) {
	select {
	case c.inflight <- struct{}{}:
	default:
		c.recorder.RecordDropped(signal, DropQueueFull)
		c.warn(c.failureWarn, "dropping telemetry payload", "signal", signal, "error", ErrQueueFull)
		return
	}

	detached := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() { <-c.inflight }()
		_ = send(detached)
	}()
}

// Wait blocks until all detached sends finish or ctx is done.
func (c *Client) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) deliver(ctx context.Context, signal string, body []byte) error {
	if !c.Enabled() {
		c.recorder.RecordDelivery(signal, OutcomeDisabled, 0)
		c.warn(c.disabledWarn, "OTLP credentials not configured, telemetry not sent", "signal", signal)
		return ErrNotConfigured
	}
	if c.cfg.DryRun {
		c.recorder.RecordDelivery(signal, OutcomeDryRun, 0)
		c.logger.Debug("dry run, telemetry not sent", "signal", signal, "payload", string(body))
		return nil
	}

	start := time.Now()
	err := c.post(ctx, signal, body)
	elapsed := time.Since(start)

	if err != nil {
		c.recorder.RecordDelivery(signal, OutcomeFailure, elapsed)
		c.warn(c.failureWarn, "telemetry delivery failed", "signal", signal, "error", err)
		return err
	}

	c.recorder.RecordDelivery(signal, OutcomeSuccess, elapsed)
	return nil
}

func (c *Client) post(ctx context.Context, signal string, body []byte) error {
	target := c.logsURL
	if signal == SignalMetrics {
		target = c.metricsURL
	}

	var reader io.Reader = bytes.NewReader(body)
	if c.cfg.Gzip {
		compressed, err := gzipBytes(body)
		if err != nil {
			return fmt.Errorf("compress body: %w", err)
		}
		reader = bytes.NewReader(compressed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, reader)
	if err != nil {
		return fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", jsonContentType)
	req.Header.Set("Authorization", c.authHeader)
	if c.cfg.Gzip {
		req.Header.Set("Content-Encoding", "gzip")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send HTTP request: %w", err)
	}
	return handleResponse(signal, resp)
}

func handleResponse(signal string, resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain to allow connection reuse.
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected HTTP status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 || !strings.HasPrefix(resp.Header.Get("Content-Type"), jsonContentType) {
		return nil
	}

	switch signal {
	case SignalLogs:
		r := plogotlp.NewExportResponse()
		if err := r.UnmarshalJSON(body); err != nil {
			return nil
		}
		if s := r.PartialSuccess(); s.RejectedLogRecords() > 0 {
			return fmt.Errorf("export logs: %d log records were rejected: %s",
				s.RejectedLogRecords(), s.ErrorMessage())
		}
	case SignalMetrics:
		r := pmetricotlp.NewExportResponse()
		if err := r.UnmarshalJSON(body); err != nil {
			return nil
		}
		if s := r.PartialSuccess(); s.RejectedDataPoints() > 0 {
			return fmt.Errorf("export metrics: %d data points were rejected: %s",
				s.RejectedDataPoints(), s.ErrorMessage())
		}
	}
	return nil
}

func gzipBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Client) warn(t *logging.Throttle, msg string, args ...any) {
	ok, suppressed := t.Allow()
	if !ok {
		return
	}
	if suppressed > 0 {
		args = append(args, "suppressed", suppressed)
	}
	c.logger.Warn(msg, args...)
}
