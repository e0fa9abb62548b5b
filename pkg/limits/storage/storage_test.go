package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// storeFactory creates a fresh store for a backend-agnostic test.
type storeFactory func(t *testing.T) Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ratelimit.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_HitStartsAndCountsWindow(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			now := time.UnixMilli(1_700_000_000_000)

			e, err := store.Hit(ctx, "client-a", now, time.Minute)
			if err != nil {
				t.Fatalf("Hit failed: %v", err)
			}
			if e.Count != 1 {
				t.Errorf("first hit count = %d, want 1", e.Count)
			}
			if !e.ResetAt.Equal(now.Add(time.Minute)) {
				t.Errorf("ResetAt = %v, want %v", e.ResetAt, now.Add(time.Minute))
			}

			for i := 2; i <= 5; i++ {
				e, err = store.Hit(ctx, "client-a", now.Add(time.Duration(i)*time.Second), time.Minute)
				if err != nil {
					t.Fatalf("Hit failed: %v", err)
				}
				if e.Count != int64(i) {
					t.Errorf("hit %d count = %d", i, e.Count)
				}
			}
			if !e.ResetAt.Equal(now.Add(time.Minute)) {
				t.Errorf("ResetAt moved to %v", e.ResetAt)
			}

			other, err := store.Hit(ctx, "client-b", now, time.Minute)
			if err != nil {
				t.Fatalf("Hit failed: %v", err)
			}
			if other.Count != 1 {
				t.Errorf("independent key count = %d, want 1", other.Count)
			}
		})
	}
}

func TestStore_WindowReset(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			now := time.UnixMilli(1_700_000_000_000)

			for i := 0; i < 150; i++ {
				if _, err := store.Hit(ctx, "k", now, time.Minute); err != nil {
					t.Fatalf("Hit failed: %v", err)
				}
			}

			later := now.Add(time.Minute)
			e, err := store.Hit(ctx, "k", later, time.Minute)
			if err != nil {
				t.Fatalf("Hit failed: %v", err)
			}
			if e.Count != 1 {
				t.Errorf("count after reset = %d, want 1", e.Count)
			}
			if !e.ResetAt.Equal(later.Add(time.Minute)) {
				t.Errorf("ResetAt = %v, want %v", e.ResetAt, later.Add(time.Minute))
			}
		})
	}
}

func TestStore_Sweep(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			now := time.UnixMilli(1_700_000_000_000)

			store.Hit(ctx, "old-1", now, time.Minute)
			store.Hit(ctx, "old-2", now, time.Minute)
			store.Hit(ctx, "fresh", now.Add(50*time.Second), time.Minute)

			removed, err := store.Sweep(ctx, now.Add(61*time.Second))
			if err != nil {
				t.Fatalf("Sweep failed: %v", err)
			}
			if removed != 2 {
				t.Errorf("removed = %d, want 2", removed)
			}

			n, err := store.Len(ctx)
			if err != nil {
				t.Fatalf("Len failed: %v", err)
			}
			if n != 1 {
				t.Errorf("Len = %d, want 1", n)
			}
		})
	}
}

func TestStore_EmptyKey(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			if _, err := newStore(t).Hit(context.Background(), "", time.Now(), time.Minute); err != ErrEmptyKey {
				t.Errorf("err = %v, want ErrEmptyKey", err)
			}
		})
	}
}

func TestStore_ConcurrentHits(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			ctx := context.Background()
			now := time.Now()

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := store.Hit(ctx, "shared", now, time.Minute); err != nil {
						t.Errorf("Hit failed: %v", err)
					}
				}()
			}
			wg.Wait()

			e, err := store.Hit(ctx, "shared", now, time.Minute)
			if err != nil {
				t.Fatalf("Hit failed: %v", err)
			}
			if e.Count != 51 {
				t.Errorf("count = %d, want 51", e.Count)
			}
		})
	}
}

func TestMemoryStore_SweepsAboveThreshold(t *testing.T) {
	store := NewMemoryStoreWithConfig(MemoryStoreConfig{SweepThreshold: 10})
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 11; i++ {
		store.Hit(ctx, fmt.Sprintf("ip-%d", i), now, time.Minute)
	}
	if n, _ := store.Len(ctx); n != 11 {
		t.Fatalf("Len = %d, want 11", n)
	}

	// Above threshold: the next hit sweeps the 11 expired entries first.
	store.Hit(ctx, "new", now.Add(2*time.Minute), time.Minute)

	if n, _ := store.Len(ctx); n != 1 {
		t.Errorf("Len after sweep = %d, want 1", n)
	}
}

func TestMemoryStore_NoSweepAtThreshold(t *testing.T) {
	store := NewMemoryStoreWithConfig(MemoryStoreConfig{SweepThreshold: 10})
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 10; i++ {
		store.Hit(ctx, fmt.Sprintf("ip-%d", i), now, time.Minute)
	}
	store.Hit(ctx, "new", now.Add(2*time.Minute), time.Minute)

	if n, _ := store.Len(ctx); n != 11 {
		t.Errorf("Len = %d, want 11 (no sweep at threshold)", n)
	}
}

func TestSQLiteStore_SweepsAboveThreshold(t *testing.T) {
	store, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:             filepath.Join(t.TempDir(), "ratelimit.db"),
		SweepThreshold:     10,
		SweepCheckInterval: 1,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStoreWithConfig failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 11; i++ {
		if _, err := store.Hit(ctx, fmt.Sprintf("ip-%d", i), now, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := store.Len(ctx); n != 11 {
		t.Fatalf("Len = %d, want 11", n)
	}

	if _, err := store.Hit(ctx, "new", now.Add(2*time.Minute), time.Minute); err != nil {
		t.Fatal(err)
	}
	if n, _ := store.Len(ctx); n != 1 {
		t.Errorf("Len after sweep = %d, want 1", n)
	}
}

func TestSQLiteStore_NoSweepAtThreshold(t *testing.T) {
	store, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:             filepath.Join(t.TempDir(), "ratelimit.db"),
		SweepThreshold:     10,
		SweepCheckInterval: 1,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStoreWithConfig failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)
	for i := 0; i < 10; i++ {
		store.Hit(ctx, fmt.Sprintf("ip-%d", i), now, time.Minute)
	}
	store.Hit(ctx, "new", now.Add(2*time.Minute), time.Minute)

	if n, _ := store.Len(ctx); n != 11 {
		t.Errorf("Len = %d, want 11 (no sweep at threshold)", n)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratelimit.db")
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	s1.Hit(ctx, "k", now, time.Minute)
	s1.Hit(ctx, "k", now, time.Minute)
	if err := s1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	e, err := s2.Hit(ctx, "k", now.Add(time.Second), time.Minute)
	if err != nil {
		t.Fatalf("Hit failed: %v", err)
	}
	if e.Count != 3 {
		t.Errorf("count after reopen = %d, want 3", e.Count)
	}
}

func TestSQLiteStore_CGODriver(t *testing.T) {
	s, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath: filepath.Join(t.TempDir(), "cgo.db"),
		Driver: DriverCGO,
	})
	if err != nil {
		t.Skipf("cgo sqlite driver unavailable: %v", err)
	}
	defer s.Close()

	e, err := s.Hit(context.Background(), "k", time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("Hit failed: %v", err)
	}
	if e.Count != 1 {
		t.Errorf("count = %d, want 1", e.Count)
	}
}

func TestSQLiteStore_InvalidConfig(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: "x.db", Driver: "postgres"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := NewRedisStore(RedisStoreConfig{Client: client, Prefix: "test:rl:"})
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	return mr, store
}

func TestRedisStore_HitAndExpire(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 3; i++ {
		e, err := store.Hit(ctx, "client", now, time.Minute)
		if err != nil {
			t.Fatalf("Hit failed: %v", err)
		}
		if e.Count != int64(i) {
			t.Errorf("hit %d count = %d", i, e.Count)
		}
	}

	if ttl := mr.TTL("test:rl:client"); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	mr.FastForward(time.Minute)

	e, err := store.Hit(ctx, "client", now.Add(time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("Hit failed: %v", err)
	}
	if e.Count != 1 {
		t.Errorf("count after expiry = %d, want 1", e.Count)
	}
}

func TestRedisStore_LenSweepPing(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()

	store.Hit(ctx, "a", time.Now(), time.Minute)
	store.Hit(ctx, "b", time.Now(), time.Minute)

	n, err := store.Len(ctx)
	if err != nil {
		t.Fatalf("Len failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}

	if removed, err := store.Sweep(ctx, time.Now()); err != nil || removed != 0 {
		t.Errorf("Sweep = %d, %v; want 0, nil", removed, err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on borrowed client returned %v", err)
	}
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	if _, err := NewRedisStore(RedisStoreConfig{}); err == nil {
		t.Error("expected error for empty url")
	}
	if _, err := NewRedisStore(RedisStoreConfig{URL: "http://nope"}); err == nil {
		t.Error("expected error for bad scheme")
	}
}
