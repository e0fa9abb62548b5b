package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/ratelimit"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/logging"
)

// Routes served by Handler.
const (
	LogsPath    = "/api/logs"
	MetricsPath = "/api/metrics"
)

// Endpoint labels used in self-metrics.
const (
	EndpointLogs    = "logs"
	EndpointMetrics = "metrics"
)

// Rejection reasons, matching metrics.Reason*.
const (
	reasonValidation  = "validation"
	reasonRateLimited = "rate_limited"
	reasonInternal    = "internal"
)

// Limiter admits or refuses a client. ratelimit.FixedWindow implements it.
type Limiter interface {
	Check(ctx context.Context, clientKey string) (ratelimit.Result, error)
}

// Forwarder receives accepted events. forwarder.Forwarder implements it.
type Forwarder interface {
	Emit(ctx context.Context, ev event.LogEvent)
	Metric(ctx context.Context, ev event.MetricEvent)
}

// Recorder counts admission outcomes. metrics.Collector implements it.
type Recorder interface {
	RecordAccepted(endpoint string)
	RecordRejected(endpoint, reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAccepted(string)         {}
func (nopRecorder) RecordRejected(string, string) {}

// Config wires a Handler.
type Config struct {
	Parser         *Parser
	LogsLimiter    Limiter
	MetricsLimiter Limiter
	Identity       ratelimit.ClientIdentity
	Forwarder      Forwarder
	Recorder       Recorder
	Logger         *slog.Logger
}

// Handler serves the mobile ingestion endpoints.
//
// Each request is rate limited per client first, then validated, then
// handed to the forwarder. The response never depends on whether the event
// later reaches the collector.
type Handler struct {
	parser         *Parser
	logsLimiter    Limiter
	metricsLimiter Limiter
	identity       ratelimit.ClientIdentity
	forwarder      Forwarder
	recorder       Recorder
	logger         *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Parser == nil || cfg.LogsLimiter == nil || cfg.MetricsLimiter == nil || cfg.Forwarder == nil {
		return nil, errors.New("ingest: parser, limiters and forwarder are required")
	}
	h := &Handler{
		parser:         cfg.Parser,
		logsLimiter:    cfg.LogsLimiter,
		metricsLimiter: cfg.MetricsLimiter,
		identity:       cfg.Identity,
		forwarder:      cfg.Forwarder,
		recorder:       cfg.Recorder,
		logger:         cfg.Logger,
	}
	if h.recorder == nil {
		h.recorder = nopRecorder{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

// Register mounts the ingestion routes on mux, passing each through wrap
// (which may be nil).
func (h *Handler) Register(mux *http.ServeMux, wrap func(route string, next http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(_ string, next http.Handler) http.Handler { return next }
	}
	mux.Handle(LogsPath, wrap(LogsPath, http.HandlerFunc(h.HandleLogs)))
	mux.Handle(MetricsPath, wrap(MetricsPath, http.HandlerFunc(h.HandleMetrics)))
}

// HandleLogs serves POST /api/logs.
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	body, ok := h.admit(w, r, EndpointLogs, h.logsLimiter)
	if !ok {
		return
	}

	ev, err := h.parser.ParseLog(body)
	if err != nil {
		h.reject(w, r, EndpointLogs, err)
		return
	}

	h.forwarder.Emit(r.Context(), ev)
	h.recorder.RecordAccepted(EndpointLogs)
	writeSuccess(w)
}

// HandleMetrics serves POST /api/metrics.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	body, ok := h.admit(w, r, EndpointMetrics, h.metricsLimiter)
	if !ok {
		return
	}

	ev, err := h.parser.ParseMetric(body)
	if err != nil {
		h.reject(w, r, EndpointMetrics, err)
		return
	}

	h.forwarder.Metric(r.Context(), ev)
	h.recorder.RecordAccepted(EndpointMetrics)
	writeSuccess(w)
}

// admit checks method and rate limit and reads the body. It writes the
// response itself when the request cannot proceed.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, endpoint string, limiter Limiter) ([]byte, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		WriteError(w, http.StatusMethodNotAllowed, ErrorTypeMethodNotAllowed, "", "", "Method not allowed")
		return nil, false
	}

	ctx := r.Context()
	clientKey := h.identity.Key(r)
	ctx = logging.WithClientKey(ctx, clientKey)

	result, err := limiter.Check(ctx, clientKey)
	if err != nil {
		h.logger.ErrorContext(ctx, "rate limit check failed",
			"endpoint", endpoint, "client_key", clientKey, "error", err)
		h.recorder.RecordRejected(endpoint, reasonInternal)
		WriteInternalError(w)
		return nil, false
	}
	setRateLimitHeaders(w, result)

	if !result.Allowed {
		h.logger.WarnContext(ctx, "rate limit exceeded",
			"endpoint", endpoint, "client_key", clientKey, "limit", result.Limit)
		h.recorder.RecordRejected(endpoint, reasonRateLimited)
		WriteRateLimited(w, result)
		return nil, false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.recorder.RecordRejected(endpoint, reasonValidation)
			WriteError(w, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest, CodeRequestTooLarge, "",
				"Request body too large")
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to read request body", "endpoint", endpoint, "error", err)
		h.recorder.RecordRejected(endpoint, reasonInternal)
		WriteInternalError(w)
		return nil, false
	}

	return body, true
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.DebugContext(r.Context(), "rejected invalid event",
			"endpoint", endpoint, "field", verr.Field, "reason", verr.Message)
		h.recorder.RecordRejected(endpoint, reasonValidation)
		WriteValidationError(w, verr)
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to process event", "endpoint", endpoint, "error", err)
	h.recorder.RecordRejected(endpoint, reasonInternal)
	WriteInternalError(w)
}
