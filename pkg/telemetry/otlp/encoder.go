package otlp

import (
	"context"
	"time"

	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/otel/trace"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
)

const (
	// ScopeName identifies this library in the OTLP scope.
	ScopeName = "github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry"

	// ScopeVersion is the library version reported in the OTLP scope.
	ScopeVersion = "1.0.0"
)

// DefaultHistogramBounds are the explicit bucket bounds (milliseconds)
// used when a histogram event carries none.
var DefaultHistogramBounds = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Resource attribute keys.
const (
	AttrServiceName       = "service.name"
	AttrServiceVersion    = "service.version"
	AttrServiceInstanceID = "service.instance.id"
	AttrDeploymentEnv     = "deployment.environment"
	AttrCloudPlatform     = "cloud.platform"
	AttrCloudRegion       = "cloud.region"
)

// Resource is the fixed service metadata attached to every payload.
type Resource struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Platform       string
	Region         string
	InstanceID     string
}

// Encoder builds OTLP payloads for one Resource. It is immutable and safe
// for concurrent use.
type Encoder struct {
	resource Resource
	bounds   []float64
}

// NewEncoder creates an Encoder for res.
func NewEncoder(res Resource) *Encoder {
	return &Encoder{resource: res, bounds: DefaultHistogramBounds}
}

// WithHistogramBounds returns a copy of e using bounds as the default
// histogram bucket bounds.
func (e *Encoder) WithHistogramBounds(bounds []float64) *Encoder {
	if len(bounds) == 0 {
		return e
	}
	cp := *e
	cp.bounds = append([]float64(nil), bounds...)
	return &cp
}

// Resource returns the encoder's resource metadata.
func (e *Encoder) Resource() Resource {
	return e.resource
}

func (e *Encoder) fillResource(attrs pcommon.Map) {
	attrs.PutStr(AttrServiceName, e.resource.ServiceName)
	attrs.PutStr(AttrServiceVersion, e.resource.ServiceVersion)
	attrs.PutStr(AttrDeploymentEnv, e.resource.Environment)
	if e.resource.Platform != "" {
		attrs.PutStr(AttrCloudPlatform, e.resource.Platform)
	}
	if e.resource.Region != "" {
		attrs.PutStr(AttrCloudRegion, e.resource.Region)
	}
	if e.resource.InstanceID != "" {
		attrs.PutStr(AttrServiceInstanceID, e.resource.InstanceID)
	}
}

func fillScope(scope pcommon.InstrumentationScope) {
	scope.SetName(ScopeName)
	scope.SetVersion(ScopeVersion)
}

// EncodeLog builds a logs payload holding one record for ev. If ctx carries
// a valid span context its trace and span IDs are set on the record.
func (e *Encoder) EncodeLog(ctx context.Context, ev event.LogEvent) plog.Logs {
	return e.EncodeLogs(ctx, []event.LogEvent{ev})
}

// EncodeLogs builds a logs payload holding one record per event, in order,
// under a single resource and scope.
func (e *Encoder) EncodeLogs(ctx context.Context, evs []event.LogEvent) plog.Logs {
	logs := plog.NewLogs()
	rl := logs.ResourceLogs().AppendEmpty()
	e.fillResource(rl.Resource().Attributes())

	sl := rl.ScopeLogs().AppendEmpty()
	fillScope(sl.Scope())

	sc := trace.SpanContextFromContext(ctx)
	records := sl.LogRecords()
	records.EnsureCapacity(len(evs))
	for _, ev := range evs {
		lr := records.AppendEmpty()
		ts := timestamp(ev.Timestamp)
		lr.SetTimestamp(ts)
		lr.SetObservedTimestamp(ts)
		lr.SetSeverityText(ev.Level.Upper())
		lr.SetSeverityNumber(SeverityNumber(ev.Level))
		lr.Body().SetStr(ev.Message)
		putAttributes(lr.Attributes(), ev.Attributes)
		if sc.IsValid() {
			lr.SetTraceID(pcommon.TraceID(sc.TraceID()))
			lr.SetSpanID(pcommon.SpanID(sc.SpanID()))
			lr.SetFlags(plog.DefaultLogRecordFlags.WithIsSampled(sc.IsSampled()))
		}
	}
	return logs
}

// SeverityNumber maps a level to its OTLP severity number. Unknown levels
// map to SeverityNumberUnspecified.
func SeverityNumber(l event.Level) plog.SeverityNumber {
	switch l {
	case event.LevelDebug:
		return plog.SeverityNumberDebug
	case event.LevelInfo:
		return plog.SeverityNumberInfo
	case event.LevelWarn:
		return plog.SeverityNumberWarn
	case event.LevelError:
		return plog.SeverityNumberError
	default:
		return plog.SeverityNumberUnspecified
	}
}

// EncodeMetric builds a metrics payload holding one data point for ev.
// Start and sample time are both ev.Timestamp.
func (e *Encoder) EncodeMetric(ev event.MetricEvent) pmetric.Metrics {
	metrics := pmetric.NewMetrics()
	rm := metrics.ResourceMetrics().AppendEmpty()
	e.fillResource(rm.Resource().Attributes())

	sm := rm.ScopeMetrics().AppendEmpty()
	fillScope(sm.Scope())

	m := sm.Metrics().AppendEmpty()
	m.SetName(ev.Name)
	ts := timestamp(ev.Timestamp)

	switch ev.Kind {
	case event.KindCounter:
		sum := m.SetEmptySum()
		sum.SetIsMonotonic(true)
		sum.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
		dp := sum.DataPoints().AppendEmpty()
		dp.SetStartTimestamp(ts)
		dp.SetTimestamp(ts)
		dp.SetIntValue(CounterValue(ev.Value))
		putAttributes(dp.Attributes(), ev.Attributes)

	case event.KindHistogram:
		h := m.SetEmptyHistogram()
		h.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
		dp := h.DataPoints().AppendEmpty()
		dp.SetStartTimestamp(ts)
		dp.SetTimestamp(ts)
		bounds := ev.Bounds
		if len(bounds) == 0 {
			bounds = e.bounds
		}
		dp.ExplicitBounds().FromRaw(bounds)
		dp.BucketCounts().FromRaw(BucketCounts(bounds, ev.Value))
		dp.SetCount(1)
		dp.SetSum(ev.Value)
		dp.SetMin(ev.Value)
		dp.SetMax(ev.Value)
		putAttributes(dp.Attributes(), ev.Attributes)

	default:
		g := m.SetEmptyGauge()
		dp := g.DataPoints().AppendEmpty()
		dp.SetStartTimestamp(ts)
		dp.SetTimestamp(ts)
		dp.SetDoubleValue(ev.Value)
		putAttributes(dp.Attributes(), ev.Attributes)
	}

	return metrics
}

// BucketCounts returns len(bounds)+1 counts with a single observation of v
// placed in the first bucket whose upper bound is >= v, or in the overflow
// bucket.
func BucketCounts(bounds []float64, v float64) []uint64 {
	counts := make([]uint64, len(bounds)+1)
	for i, b := range bounds {
		if v <= b {
			counts[i] = 1
			return counts
		}
	}
	counts[len(bounds)] = 1
	return counts
}

// timestamp converts t to nanoseconds at millisecond precision.
func timestamp(t time.Time) pcommon.Timestamp {
	if t.IsZero() {
		t = time.Now()
	}
	return pcommon.Timestamp(uint64(t.UnixMilli()) * 1_000_000)
}
