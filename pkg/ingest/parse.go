package ingest

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/valyala/fastjson"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/otlp"
)

// Parser validates ingestion bodies. It is safe for concurrent use.
type Parser struct {
	pool             fastjson.ParserPool
	maxMessageLength int
	metricPrefixes   []string
	metricSource     string
}

// NewParser creates a Parser.
func NewParser(maxMessageLength int, metricPrefixes []string, metricSource string) *Parser {
	return &Parser{
		maxMessageLength: maxMessageLength,
		metricPrefixes:   append([]string(nil), metricPrefixes...),
		metricSource:     metricSource,
	}
}

// ParseLog validates a /api/logs body:
//
//	{"level": "warn", "message": "socket closed", "attributes": {"screen": "lobby"}}
//
// level defaults to info. message must hold 1 to maxMessageLength characters.
func (p *Parser) ParseLog(body []byte) (event.LogEvent, error) {
	parser := p.pool.Get()
	defer p.pool.Put(parser)

	v, err := parseObject(parser, body)
	if err != nil {
		return event.LogEvent{}, err
	}

	level := event.LevelInfo
	if lv := v.Get("level"); lv != nil && lv.Type() != fastjson.TypeNull {
		s, err := lv.StringBytes()
		if err != nil {
			return event.LogEvent{}, invalidValue("level", "level must be a string")
		}
		if level, err = event.ParseLevel(string(s)); err != nil {
			return event.LogEvent{}, invalidValue("level", "level must be one of debug, info, warn, error")
		}
	}

	mv := v.Get("message")
	if mv == nil || mv.Type() == fastjson.TypeNull {
		return event.LogEvent{}, missingField("message")
	}
	msg, err := mv.StringBytes()
	if err != nil {
		return event.LogEvent{}, invalidValue("message", "message must be a string")
	}
	n := utf8.RuneCount(msg)
	if n == 0 {
		return event.LogEvent{}, missingField("message")
	}
	if n > p.maxMessageLength {
		return event.LogEvent{}, invalidValue("message", "message must be at most %d characters", p.maxMessageLength)
	}

	attrs, err := parseAttributes(v)
	if err != nil {
		return event.LogEvent{}, err
	}

	return event.NewLog(level, string(msg), attrs), nil
}

// ParseMetric validates a /api/metrics body:
//
//	{"type": "histogram", "name": "mobile.network.duration", "value": 184, "attributes": {...}}
//
// name must start with one of the accepted prefixes and value must be a
// finite number. The source attribute is always set to the configured
// metric source.
func (p *Parser) ParseMetric(body []byte) (event.MetricEvent, error) {
	parser := p.pool.Get()
	defer p.pool.Put(parser)

	v, err := parseObject(parser, body)
	if err != nil {
		return event.MetricEvent{}, err
	}

	tv := v.Get("type")
	if tv == nil || tv.Type() == fastjson.TypeNull {
		return event.MetricEvent{}, missingField("type")
	}
	ts, err := tv.StringBytes()
	if err != nil {
		return event.MetricEvent{}, invalidValue("type", "type must be a string")
	}
	kind, err := event.ParseKind(string(ts))
	if err != nil {
		return event.MetricEvent{}, invalidValue("type", "type must be one of counter, gauge, histogram")
	}

	nv := v.Get("name")
	if nv == nil || nv.Type() == fastjson.TypeNull {
		return event.MetricEvent{}, missingField("name")
	}
	nb, err := nv.StringBytes()
	if err != nil {
		return event.MetricEvent{}, invalidValue("name", "name must be a string")
	}
	name := string(nb)
	if !p.allowedName(name) {
		return event.MetricEvent{}, invalidValue("name", "name must start with one of: %s", strings.Join(p.metricPrefixes, ", "))
	}

	vv := v.Get("value")
	if vv == nil || vv.Type() == fastjson.TypeNull {
		return event.MetricEvent{}, missingField("value")
	}
	value, err := vv.Float64()
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return event.MetricEvent{}, invalidValue("value", "value must be a finite number")
	}
	if kind == event.KindCounter && !otlp.IsIntegral(math.Round(value)) {
		return event.MetricEvent{}, invalidValue("value", "counter value must fit a 64-bit integer")
	}

	attrs, err := parseAttributes(v)
	if err != nil {
		return event.MetricEvent{}, err
	}
	if attrs == nil {
		attrs = event.Attributes{}
	}
	attrs["source"] = p.metricSource

	return event.NewMetric(kind, name, value, attrs), nil
}

func (p *Parser) allowedName(name string) bool {
	for _, prefix := range p.metricPrefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return true
		}
	}
	return false
}

func parseObject(parser *fastjson.Parser, body []byte) (*fastjson.Value, error) {
	if len(body) == 0 {
		return nil, &ValidationError{Code: CodeInvalidJSON, Message: "request body is empty"}
	}
	v, err := parser.ParseBytes(body)
	if err != nil {
		return nil, &ValidationError{Code: CodeInvalidJSON, Message: "invalid JSON: " + err.Error()}
	}
	if v.Type() != fastjson.TypeObject {
		return nil, &ValidationError{Code: CodeInvalidJSON, Message: "request body must be a JSON object"}
	}
	return v, nil
}

// parseAttributes converts the optional "attributes" object. Integral
// numbers become int64, other numbers float64. Nested objects become
// map[string]any and arrays []any, so the sanitizer sees nested keys.
func parseAttributes(v *fastjson.Value) (event.Attributes, error) {
	av := v.Get("attributes")
	if av == nil || av.Type() == fastjson.TypeNull {
		return nil, nil
	}
	obj, err := av.Object()
	if err != nil {
		return nil, invalidValue("attributes", "attributes must be an object")
	}

	attrs := make(event.Attributes, obj.Len())
	obj.Visit(func(key []byte, val *fastjson.Value) {
		attrs[string(key)] = attributeValue(val)
	})
	return attrs, nil
}

func attributeValue(val *fastjson.Value) any {
	switch val.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeString:
		return string(val.GetStringBytes())
	case fastjson.TypeNumber:
		if i, err := val.Int64(); err == nil {
			return i
		}
		return val.GetFloat64()
	case fastjson.TypeObject:
		obj, _ := val.Object()
		out := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, v *fastjson.Value) {
			out[string(key)] = attributeValue(v)
		})
		return out
	case fastjson.TypeArray:
		items, _ := val.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = attributeValue(item)
		}
		return out
	default:
		return val.String()
	}
}
