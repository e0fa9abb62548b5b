package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient is the key used when no identity can be derived.
const UnknownClient = "unknown"

// DefaultPlatformHeaders are consulted after X-Forwarded-For and X-Real-IP.
var DefaultPlatformHeaders = []string{"X-Vercel-Forwarded-For"}

// ClientIdentity derives a rate-limit key from a request.
type ClientIdentity struct {
	// PlatformHeaders are hosting-specific forwarded headers, checked in order.
	PlatformHeaders []string

	// UseRemoteAddr falls back to the socket peer before UnknownClient.
	UseRemoteAddr bool
}

// Key returns the client identity for r: the first hop of X-Forwarded-For,
// then X-Real-IP, then the platform headers, then optionally the remote
// address, then UnknownClient.
func (c ClientIdentity) Key(r *http.Request) string {
	if key := firstHop(r.Header.Get("X-Forwarded-For")); key != "" {
		return key
	}
	if key := strings.TrimSpace(r.Header.Get("X-Real-IP")); key != "" {
		return key
	}
	for _, h := range c.PlatformHeaders {
		if key := firstHop(r.Header.Get(h)); key != "" {
			return key
		}
	}
	if c.UseRemoteAddr && r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return UnknownClient
}

// ClientKey derives the client identity with the default header chain.
func ClientKey(r *http.Request) string {
	return ClientIdentity{PlatformHeaders: DefaultPlatformHeaders}.Key(r)
}

func firstHop(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
