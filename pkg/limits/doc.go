// Package limits groups per-client admission control for the ingestion
// endpoints.
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - ratelimit: fixed-window limiters and client identity extraction
//   - storage: window counters (memory, SQLite, Redis)
//
// Each ingestion endpoint owns one limiter. All limiters share a single
// store and namespace their keys by limiter name, so a client's log budget
// never consumes its metric budget.
//
// # Usage
//
//	store := storage.NewMemoryStore()
//	logs, err := ratelimit.NewFixedWindow(store, ratelimit.Config{
//	    Name:  "logs",
//	    Limit: 100,
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := logs.Check(ctx, ratelimit.ClientKey(r))
//	if err != nil {
//	    return err
//	}
//	if !result.Allowed {
//	    w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
//	}
package limits
