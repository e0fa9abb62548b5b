// Package storage provides persistence backends for fixed-window rate-limit
// counters.
//
// # Overview
//
// A Store maps a client key to an Entry {Count, ResetAt}. Three backends
// are provided:
//
//   - Memory: mutex-guarded map (default). Expired entries are swept
//     opportunistically once the map grows past 10,000 entries.
//   - SQLite: a single table, shared across restarts, swept the same way
//     (the row count is checked every few hundred hits). Either the pure Go
//     driver (modernc.org/sqlite) or the cgo driver (mattn/go-sqlite3).
//   - Redis: INCR + PEXPIRE in a Lua script, shared across replicas.
//
// # Usage
//
//	store := storage.NewMemoryStore()
//	entry, err := store.Hit(ctx, "203.0.113.7", time.Now(), time.Minute)
//	if err != nil {
//	    return err
//	}
//	allowed := entry.Count <= 100
//
// # Thread Safety
//
// All stores are safe for concurrent use. Hit is atomic per key.
package storage
