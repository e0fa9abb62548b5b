// Beacon is the telemetry forwarding shim of the Uber Fight platform.
//
// It accepts log and metric events from the mobile app over HTTP,
// sanitizes and rate limits them, and forwards them to Grafana Cloud as
// OTLP/HTTP JSON.
//
// Usage:
//
//	# Start the shim with defaults and environment overrides
//	beacon serve
//
//	# Start with a configuration file, reloading it on change
//	beacon serve --config /etc/beacon/config.yaml --watch
//
//	# Send one event synchronously to check credentials
//	beacon send log --level warn --message "smoke test"
//	beacon send metric --type counter --name mobile.app.smoke --value 1
//
//	# Check a configuration file
//	beacon validate --config config.yaml
package main

func main() {
	Execute()
}
