package storage

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyKey is returned when a hit is recorded without a client key.
var ErrEmptyKey = errors.New("storage: client key cannot be empty")

// Store persists fixed-window counters keyed by client identity.
// Implementations must be safe for concurrent use.
type Store interface {
	// Hit records one request for key at now. If key has no entry, or its
	// window has elapsed (now >= ResetAt), the entry restarts with Count 1
	// and ResetAt now+window. Otherwise Count is incremented and ResetAt is
	// left unchanged. The updated entry is returned.
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error)

	// Sweep removes entries whose window has elapsed at now and returns
	// how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Len returns the number of stored entries, expired ones included.
	Len(ctx context.Context) (int, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Entry is the window state for one client key.
type Entry struct {
	// Key is the client identity.
	Key string

	// Count is the number of hits in the current window.
	Count int64

	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// Expired reports whether the entry's window has elapsed at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ResetAt)
}
