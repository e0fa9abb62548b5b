package otlp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/thierrymgn/Uber-Fight-sub000/pkg/telemetry/event"
)

func putAttributes(dst pcommon.Map, attrs event.Attributes) {
	dst.EnsureCapacity(len(attrs))
	for k, v := range attrs {
		putAttribute(dst, k, v)
	}
}

func putAttribute(dst pcommon.Map, key string, v any) {
	switch x := v.(type) {
	case nil:
		dst.PutStr(key, "")
	case string:
		dst.PutStr(key, x)
	case bool:
		dst.PutBool(key, x)
	case int:
		dst.PutInt(key, int64(x))
	case int8:
		dst.PutInt(key, int64(x))
	case int16:
		dst.PutInt(key, int64(x))
	case int32:
		dst.PutInt(key, int64(x))
	case int64:
		dst.PutInt(key, x)
	case uint:
		putUint(dst, key, uint64(x))
	case uint8:
		dst.PutInt(key, int64(x))
	case uint16:
		dst.PutInt(key, int64(x))
	case uint32:
		dst.PutInt(key, int64(x))
	case uint64:
		putUint(dst, key, x)
	case float32:
		putFloat(dst, key, float64(x))
	case float64:
		putFloat(dst, key, x)
	case map[string]any, []any, event.Attributes:
		putJSON(dst, key, x)
	case fmt.Stringer:
		dst.PutStr(key, x.String())
	default:
		dst.PutStr(key, fmt.Sprint(x))
	}
}

// putJSON stores nested values as their JSON text. Values the sanitizer
// has already walked keep their redactions.
func putJSON(dst pcommon.Map, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		dst.PutStr(key, fmt.Sprint(v))
		return
	}
	dst.PutStr(key, string(b))
}

func putUint(dst pcommon.Map, key string, v uint64) {
	if v > math.MaxInt64 {
		dst.PutStr(key, strconv.FormatUint(v, 10))
		return
	}
	dst.PutInt(key, int64(v))
}

// putFloat encodes integral values that fit int64 as intValue and
// everything else as a decimal string.
func putFloat(dst pcommon.Map, key string, v float64) {
	if IsIntegral(v) {
		dst.PutInt(key, int64(v))
		return
	}
	dst.PutStr(key, strconv.FormatFloat(v, 'f', -1, 64))
}

// CounterValue rounds v to the nearest integer, clamped to the int64 range.
func CounterValue(v float64) int64 {
	r := math.Round(v)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt64:
		return math.MaxInt64
	case r <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(r)
	}
}

// IsIntegral reports whether v is a whole number representable as int64.
func IsIntegral(v float64) bool {
	return v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64
}
