package ratelimit

import (
	"context"
	"fmt"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/limits/storage"
)

// FixedWindow admits at most Limit requests per client key per window.
//
// The first request for a key, or the first one after the key's window has
// elapsed, starts a new window with count 1. Later requests increment the
// count and are allowed while count <= Limit. Rejected requests still count.
type FixedWindow struct {
	store  storage.Store
	clock  Clock
	config Config
}

// NewFixedWindow creates a limiter over store.
func NewFixedWindow(store storage.Store, config Config) (*FixedWindow, error) {
	if store == nil {
		return nil, fmt.Errorf("ratelimit: store cannot be nil")
	}
	if config.Limit <= 0 {
		return nil, fmt.Errorf("ratelimit: limit must be positive, got %d", config.Limit)
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	return &FixedWindow{store: store, clock: SystemClock, config: config}, nil
}

// WithClock replaces the limiter's clock and returns the limiter.
func (f *FixedWindow) WithClock(c Clock) *FixedWindow {
	f.clock = c
	return f
}

// Check records a request for clientKey and reports whether it is admitted.
func (f *FixedWindow) Check(ctx context.Context, clientKey string) (Result, error) {
	key := clientKey
	if f.config.Name != "" {
		key = f.config.Name + "|" + clientKey
	}

	entry, err := f.store.Hit(ctx, key, f.clock.Now(), f.config.Window)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit %s: %w", f.config.Name, err)
	}

	result := Result{
		Allowed:   entry.Count <= f.config.Limit,
		Limit:     f.config.Limit,
		Remaining: max(f.config.Limit-entry.Count, 0),
		ResetAt:   entry.ResetAt,
	}
	if !result.Allowed {
		result.RetryAfter = f.config.Window
	}
	return result, nil
}

// Limit returns the configured limit.
func (f *FixedWindow) Limit() int64 {
	return f.config.Limit
}

// Name returns the limiter name.
func (f *FixedWindow) Name() string {
	return f.config.Name
}
