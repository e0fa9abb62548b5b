package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/ingest"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/logging"
)

// Recovery turns a handler panic into a 500 in the ingestion error format.
// The panic value and stack go to the local log only. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"error", rec,
					"request_id", logging.GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				ingest.WriteInternalError(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
