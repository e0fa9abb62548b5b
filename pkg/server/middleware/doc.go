// Package middleware provides the HTTP middleware chain of the telemetry
// shim.
//
// # Chain
//
// The server applies, outermost first:
//
//	Recovery → RequestID → tracing → Logging → CORS → BodyLimit → mux
//
// Recovery sits outside everything so a panic anywhere still yields a JSON
// 500. RequestID runs before Logging so the request line carries the ID.
//
// # Usage
//
//	handler := middleware.Chain(mux,
//	    middleware.Recovery(logger),
//	    middleware.RequestID,
//	    middleware.Logging(logger),
//	    middleware.CORS(middleware.DefaultCORSConfig()),
//	    middleware.BodyLimit(64<<10),
//	)
package middleware
