package instrument

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
)

// Duration thresholds for performance logs.
const (
	// SlowThreshold marks an operation slow=true.
	SlowThreshold = 3000 * time.Millisecond

	// WarnThreshold raises the log level to warn.
	WarnThreshold = 5000 * time.Millisecond
)

// Performance log attribute values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// LogEmitter forwards log events. forwarder.Forwarder implements it.
type LogEmitter interface {
	Log(ctx context.Context, level event.Level, message string, attrs event.Attributes)
}

// now is replaced in tests.
var now = time.Now

// WithPerformanceLogging runs op and forwards one performance log
// describing it. op's error is returned unchanged; a panic in op is logged
// and then re-raised.
func WithPerformanceLogging(ctx context.Context, logs LogEmitter, name string, op func(context.Context) error) error {
	_, err := Measure(ctx, logs, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Measure is WithPerformanceLogging for operations that return a value.
func Measure[T any](ctx context.Context, logs LogEmitter, name string, op func(context.Context) (T, error)) (result T, err error) {
	start := now()
	completed := false

	defer func() {
		elapsed := now().Sub(start)
		if !completed {
			r := recover()
			if r == nil {
				// runtime.Goexit
				logPerformance(ctx, logs, name, elapsed, errors.New("aborted"))
				return
			}
			logPerformance(ctx, logs, name, elapsed, fmt.Errorf("panic: %v", r))
			panic(r)
		}
		logPerformance(ctx, logs, name, elapsed, err)
	}()

	result, err = op(ctx)
	completed = true
	return result, err
}

func logPerformance(ctx context.Context, logs LogEmitter, name string, elapsed time.Duration, opErr error) {
	attrs := event.Attributes{
		"type":        "performance",
		"operation":   name,
		"duration_ms": elapsed.Milliseconds(),
		"status":      StatusSuccess,
	}
	if opErr != nil {
		attrs["status"] = StatusError
		attrs["error"] = opErr.Error()
	}
	if elapsed > SlowThreshold {
		attrs["slow"] = true
	}

	level := event.LevelInfo
	if elapsed > WarnThreshold {
		level = event.LevelWarn
	}

	safeEmit(func() {
		logs.Log(ctx, level, fmt.Sprintf("performance: %s", name), attrs)
	})
}

// safeEmit keeps a misbehaving emitter from disturbing the caller.
func safeEmit(emit func()) {
	defer func() { _ = recover() }()
	emit()
}
