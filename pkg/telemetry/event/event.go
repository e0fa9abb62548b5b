// Package event defines the log and metric events emitted through the
// telemetry forwarder.
//
// Events are plain values created at the call site, consumed once by the
// OTLP encoder and never persisted. Constructors copy the attribute map so a
// caller mutating its own map afterwards cannot change an event in flight.
package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownLevel is returned when a level string is not one of debug,
	// info, warn or error.
	ErrUnknownLevel = errors.New("unknown log level")

	// ErrUnknownKind is returned when a metric kind string is not one of
	// counter, gauge or histogram.
	ErrUnknownKind = errors.New("unknown metric kind")
)

// Level is the severity of a LogEvent.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel parses a lower-case level name. An empty string is rejected;
// callers that want a default should substitute LevelInfo themselves.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return Level(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	_, err := ParseLevel(string(l))
	return err == nil
}

// Upper returns the level name in upper case (OTLP severityText).
func (l Level) Upper() string {
	return strings.ToUpper(string(l))
}

// Kind is the instrument type of a MetricEvent.
type Kind string

const (
	KindCounter   Kind = "counter"
	KindGauge     Kind = "gauge"
	KindHistogram Kind = "histogram"
)

// ParseKind parses a lower-case metric kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCounter, KindGauge, KindHistogram:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Attributes maps attribute keys to string, integer, floating point, bool or
// nil values. Other value types are accepted and stringified by the encoder.
type Attributes map[string]any

// Clone returns a shallow copy of a. A nil map clones to nil.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// LogEvent is a single leveled log message.
type LogEvent struct {
	Message    string
	Level      Level
	Attributes Attributes
	Timestamp  time.Time
}

// NewLog creates a LogEvent stamped with the current wall-clock time.
func NewLog(level Level, message string, attrs Attributes) LogEvent {
	return LogEvent{
		Message:    message,
		Level:      level,
		Attributes: attrs.Clone(),
		Timestamp:  time.Now(),
	}
}

// MetricEvent is a single named metric sample. Name is a dotted namespace
// such as "mobile.network.duration". Bounds overrides the explicit
// histogram bucket bounds and is ignored for counters and gauges.
type MetricEvent struct {
	Name       string
	Kind       Kind
	Value      float64
	Attributes Attributes
	Timestamp  time.Time
	Bounds     []float64
}

// NewMetric creates a MetricEvent stamped with the current wall-clock time.
func NewMetric(kind Kind, name string, value float64, attrs Attributes) MetricEvent {
	return MetricEvent{
		Name:       name,
		Kind:       kind,
		Value:      value,
		Attributes: attrs.Clone(),
		Timestamp:  time.Now(),
	}
}
