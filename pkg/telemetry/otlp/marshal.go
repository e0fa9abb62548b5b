package otlp

import (
	"fmt"

	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/collector/pdata/plog/plogotlp"
	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/pmetric/pmetricotlp"
)

// MarshalLogs serializes logs as an OTLP/JSON export request.
func MarshalLogs(logs plog.Logs) ([]byte, error) {
	b, err := plogotlp.NewExportRequestFromLogs(logs).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal logs: %w", err)
	}
	return b, nil
}

// MarshalMetrics serializes metrics as an OTLP/JSON export request.
func MarshalMetrics(metrics pmetric.Metrics) ([]byte, error) {
	b, err := pmetricotlp.NewExportRequestFromMetrics(metrics).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	return b, nil
}
