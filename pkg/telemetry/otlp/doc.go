// Package otlp converts log and metric events into OTLP payloads.
//
// Payloads are built with the OpenTelemetry collector pdata types and
// serialized as OTLP/JSON export requests, the format accepted by the
// Grafana Cloud OTLP gateway on /v1/logs and /v1/metrics.
//
// # Shape
//
// Every payload carries exactly one resource (the service metadata in
// Resource) and one scope (this library). EncodeLog and EncodeMetric emit a
// single record or data point; EncodeLogs packs several log records under
// the same resource and scope.
//
// # Attribute coercion
//
// Attribute values are mapped to OTLP any-values as follows:
//
//	nil                        -> stringValue ""
//	string                     -> stringValue
//	bool                       -> boolValue
//	Go integers                -> intValue
//	float with integral value  -> intValue
//	other floats, NaN, Inf     -> stringValue (strconv 'f' formatting)
//	anything else              -> stringValue (fmt.Sprint)
//
// Fractional numbers become strings. Receivers that aggregate on numeric
// attributes will not see them as numbers.
package otlp
