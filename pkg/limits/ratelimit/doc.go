// Package ratelimit provides fixed-window admission control for the
// ingestion endpoints.
//
// # Fixed Window
//
// Each client key maps to a (count, resetAt) pair held in a storage.Store.
// A key's first request, or its first request after resetAt, starts a new
// window; later requests increment the count and are allowed while
// count <= limit:
//
//	store := storage.NewMemoryStore()
//	logs, _ := ratelimit.NewFixedWindow(store, ratelimit.Config{Name: "logs", Limit: 100})
//
//	res, err := logs.Check(ctx, ratelimit.ClientKey(r))
//	if err != nil {
//	    // store failure
//	}
//	if !res.Allowed {
//	    w.Header().Set("Retry-After", "60")
//	}
//
// Several limiters may share one store; Config.Name keeps their keys apart.
//
// # Client Identity
//
// ClientKey walks X-Forwarded-For (first hop), X-Real-IP and the platform
// forwarded header, falling back to "unknown". Every request without
// forwarding headers therefore shares one bucket.
package ratelimit
