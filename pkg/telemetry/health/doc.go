// Package health provides liveness and readiness endpoints.
//
// /health answers as long as the process serves HTTP. /ready runs the
// registered checks concurrently, each under a timeout:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("ratelimit_store", health.PingCheck(store))
//	checker.RegisterCheck("exporter", health.EnabledCheck(exp.Enabled, "grafana credentials not set"))
//	checker.Register(mux, version, commit, buildTime)
//
// A check returning ErrDisabled is reported as "disabled" without failing
// readiness: the shim keeps accepting events while delivery is switched off.
package health
