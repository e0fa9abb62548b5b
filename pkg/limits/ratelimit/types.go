package ratelimit

import "time"

// DefaultWindow is the fixed window length.
const DefaultWindow = time.Minute

// Config configures a FixedWindow limiter.
type Config struct {
	// Name namespaces keys in a store shared by several limiters.
	Name string

	// Limit is the number of requests admitted per window.
	Limit int64

	// Window is the window length.
	// Default: DefaultWindow
	Window time.Duration
}

// Result contains the result of a rate limit check.
type Result struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Limit is the configured limit value.
	Limit int64

	// Remaining is how many requests remain in the window.
	Remaining int64

	// ResetAt is when the window ends.
	ResetAt time.Time

	// RetryAfter suggests how long to wait before retrying. It is the
	// full window length, not the time left in it.
	RetryAfter time.Duration
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
