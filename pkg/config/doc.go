// Package config loads and validates beacon configuration.
//
// # Loading
//
// Configuration comes from an optional YAML file decoded over the defaults,
// then environment overrides, then validation:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("beacon.yaml")
//
// The Grafana deployment variables (GRAFANA_INSTANCE_ID, GRAFANA_API_KEY,
// GRAFANA_OTLP_ENDPOINT, SERVICE_NAME, SERVICE_VERSION, DEPLOY_ENV,
// DEPLOY_PLATFORM, DEPLOY_REGION) are honored, and any field can be
// overridden with BEACON_SECTION_FIELD, for example
// BEACON_RATELIMIT_LOGS_PER_MINUTE=50.
//
// Missing Grafana credentials are not a validation error. Delivery is
// disabled instead and ingestion keeps working.
//
// # Singleton
//
// Initialize stores the loaded configuration process-wide; GetConfig and
// MustGetConfig read it. ReloadConfig swaps it after a successful reload.
//
// # Hot reload
//
// Watcher watches the file with fsnotify and reloads it after a short
// debounce. Only the log level and the sanitizer's extra keys are applied
// to a running server; other sections take effect on restart.
package config
