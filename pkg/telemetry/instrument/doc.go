// Package instrument wraps call sites with telemetry.
//
// WithPerformanceLogging and Measure time an operation and forward one
// performance log: info normally, slow=true past 3 s, warn level past 5 s.
//
//	err := instrument.WithPerformanceLogging(ctx, fwd, "heartbeat", func(ctx context.Context) error {
//	    return job.Run(ctx)
//	})
//
// WithAPIMetrics wraps an http.Handler and forwards request count, duration
// and error count metrics. Neither wrapper changes the wrapped operation's
// result; panics are recorded and re-raised.
package instrument
