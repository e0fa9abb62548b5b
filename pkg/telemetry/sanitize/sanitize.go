// Package sanitize redacts sensitive attributes and truncates oversized
// string values before telemetry leaves the process.
//
// Redaction is keyed on attribute names, not values. A key is normalized by
// lower-casing it and stripping '-' and '_'; if the normalized key contains
// any sensitive term its value is replaced with RedactedValue regardless of
// type. String values under other keys longer than MaxValueLength runes are
// cut to MaxValueLength runes and suffixed with TruncationMarker. Nested
// map[string]any and []any values get the same treatment at every depth.
// Nothing else is changed.
package sanitize

import (
	"strings"
	"unicode/utf8"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
)

const (
	// RedactedValue replaces the value of every sensitive attribute.
	RedactedValue = "[REDACTED]"

	// TruncationMarker is appended to truncated string values.
	TruncationMarker = "...[TRUNCATED]"

	// MaxValueLength is the maximum length, in runes, of a string value.
	MaxValueLength = 500
)

// DefaultSensitiveTerms are matched against normalized attribute keys.
var DefaultSensitiveTerms = []string{
	"password", "passwd", "pwd",
	"token", "accesstoken", "refreshtoken",
	"secret",
	"apikey",
	"authorization", "authtoken", "authheader",
	"creditcard", "cardnumber", "ccnumber",
	"cvv", "cvc",
	"ssn",
	"privatekey",
	"sessionid", "cookie",
}

// Sanitizer applies the redaction and truncation policy.
// A Sanitizer is immutable and safe for concurrent use.
type Sanitizer struct {
	terms  []string
	maxLen int
}

// New creates a Sanitizer using DefaultSensitiveTerms plus any extra terms.
// Extra terms are normalized the same way keys are.
func New(extraTerms ...string) *Sanitizer {
	terms := make([]string, 0, len(DefaultSensitiveTerms)+len(extraTerms))
	terms = append(terms, DefaultSensitiveTerms...)
	for _, t := range extraTerms {
		if n := NormalizeKey(t); n != "" {
			terms = append(terms, n)
		}
	}
	return &Sanitizer{terms: terms, maxLen: MaxValueLength}
}

// NormalizeKey lower-cases key and strips '-' and '_'.
func NormalizeKey(key string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(key))
}

// IsSensitiveKey reports whether key names a sensitive attribute.
func (s *Sanitizer) IsSensitiveKey(key string) bool {
	normalized := NormalizeKey(key)
	for _, term := range s.terms {
		if strings.Contains(normalized, term) {
			return true
		}
	}
	return false
}

// Value returns the sanitized form of a single attribute value.
func (s *Sanitizer) Value(key string, value any) any {
	if s.IsSensitiveKey(key) {
		return RedactedValue
	}
	return s.nested(value)
}

// nested sanitizes a value whose own key has already been checked.
func (s *Sanitizer) nested(value any) any {
	switch x := value.(type) {
	case string:
		return s.truncate(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = s.Value(k, v)
		}
		return out
	case event.Attributes:
		return s.Sanitize(x)
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = s.nested(v)
		}
		return out
	default:
		return value
	}
}

// Sanitize returns a sanitized copy of attrs. The input map is not modified.
func (s *Sanitizer) Sanitize(attrs event.Attributes) event.Attributes {
	if attrs == nil {
		return nil
	}
	out := make(event.Attributes, len(attrs))
	for k, v := range attrs {
		out[k] = s.Value(k, v)
	}
	return out
}

// Log returns ev with sanitized attributes.
func (s *Sanitizer) Log(ev event.LogEvent) event.LogEvent {
	ev.Attributes = s.Sanitize(ev.Attributes)
	return ev
}

// Metric returns ev with sanitized attributes.
func (s *Sanitizer) Metric(ev event.MetricEvent) event.MetricEvent {
	ev.Attributes = s.Sanitize(ev.Attributes)
	return ev
}

func (s *Sanitizer) truncate(v string) string {
	if utf8.RuneCountInString(v) <= s.maxLen {
		return v
	}
	n := 0
	for i := range v {
		if n == s.maxLen {
			return v[:i] + TruncationMarker
		}
		n++
	}
	return v
}

var defaultSanitizer = New()

// Sanitize applies the default policy to attrs.
func Sanitize(attrs event.Attributes) event.Attributes {
	return defaultSanitizer.Sanitize(attrs)
}
