// Package forwarder is the telemetry facade used by HTTP handlers,
// scheduled jobs and the CLI.
//
//	fwd := forwarder.New(encoder, exporter, forwarder.WithObserver(collector))
//	fwd.Info(ctx, "fight created", event.Attributes{"fight_id": id})
//	fwd.Histogram(ctx, "mobile.network.duration", 184, nil)
//
// Each call sanitizes the attributes, builds one OTLP payload and hands it
// to the sink, which delivers it in the background. The methods return
// nothing: delivery can neither fail nor slow down the caller.
package forwarder
