package storage

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepThreshold is the entry count above which the memory store
// sweeps expired entries before servicing a hit.
const DefaultSweepThreshold = 10000

// MemoryStore implements Store with a mutex-guarded map.
// All data is lost when the process exits.
//
// There is no background cleanup goroutine: once the map holds more than
// the sweep threshold, the next Hit removes every expired entry first.
type MemoryStore struct {
	mu             sync.Mutex
	entries        map[string]*Entry
	sweepThreshold int
}

// MemoryStoreConfig configures the memory store.
type MemoryStoreConfig struct {
	// SweepThreshold is the size above which Hit sweeps expired entries.
	// Default: 10,000
	SweepThreshold int
}

// NewMemoryStore creates a memory store with default settings.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(MemoryStoreConfig{})
}

// NewMemoryStoreWithConfig creates a memory store with custom configuration.
func NewMemoryStoreWithConfig(cfg MemoryStoreConfig) *MemoryStore {
	if cfg.SweepThreshold <= 0 {
		cfg.SweepThreshold = DefaultSweepThreshold
	}
	return &MemoryStore{
		entries:        make(map[string]*Entry),
		sweepThreshold: cfg.SweepThreshold,
	}
}

// Hit records one request for key.
func (m *MemoryStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	if key == "" {
		return Entry{}, ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) > m.sweepThreshold {
		m.sweepLocked(now)
	}

	e, ok := m.entries[key]
	if !ok || e.Expired(now) {
		e = &Entry{Key: key, Count: 1, ResetAt: now.Add(window)}
		m.entries[key] = e
		return *e, nil
	}

	e.Count++
	return *e, nil
}

// Sweep removes expired entries.
func (m *MemoryStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now), nil
}

func (m *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries.
func (m *MemoryStore) Len(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries), nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close clears the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry)
	return nil
}
