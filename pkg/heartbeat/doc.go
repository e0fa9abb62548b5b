// Package heartbeat runs the shim's scheduled self-report.
//
// On each beat the job forwards a service.heartbeat gauge of 1, sweeps
// expired rate-limit windows and forwards the remaining window count as
// ratelimit.store.size. The beat is timed with
// instrument.WithPerformanceLogging, so slow or failing beats also appear
// as performance logs in the collector.
//
//	job, err := heartbeat.New(heartbeat.Config{
//	    Schedule: "@every 1m",
//	    Store:    store,
//	    Emitter:  fwd,
//	    Gauge:    collector,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := job.Start(ctx); err != nil {
//	    return err
//	}
//	defer job.Stop()
package heartbeat
